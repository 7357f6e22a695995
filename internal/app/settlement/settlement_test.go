package settlement_test

import (
	"errors"
	"testing"
	"time"

	"github.com/kdmlabs/kdmhub/internal/app/settlement"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

func period(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 3, 0)
}

func TestCompute(t *testing.T) {
	start, end := period(t)

	st, err := settlement.Compute(settlement.Input{
		PeriodStart: start,
		PeriodEnd:   end,
		ProgramRevenues: []models.MoneyLine{
			{Label: "cohort tuition", Amount: 1_500_000},
			{Label: "sponsorships", Amount: 250_000},
		},
		DirectProgramCosts: []models.MoneyLine{
			{Label: "instructor fees", Amount: 400_000},
			{Label: "materials", Amount: 50_000},
		},
		PlatformRunCostAllowance: 100_000,
		CostRecoveryPool:         200_000,
		KDMSharePercent:          60,
		VPlusSharePercent:        40,
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if st.RevenueTotal != 1_750_000 {
		t.Errorf("revenue_total: got %d", st.RevenueTotal)
	}
	if st.CostsTotal != 450_000 {
		t.Errorf("costs_total: got %d", st.CostsTotal)
	}
	// 1,750,000 - 450,000 - 100,000 - 200,000
	if st.NetProgramRevenue != 1_000_000 {
		t.Errorf("net: got %d", st.NetProgramRevenue)
	}
	if st.KDMShare != 600_000 {
		t.Errorf("kdm_share: got %d", st.KDMShare)
	}
	if st.VPlusShare != 400_000 {
		t.Errorf("vplus_share: got %d", st.VPlusShare)
	}
	if st.KDMShare+st.VPlusShare != st.NetProgramRevenue {
		t.Error("shares must sum to net")
	}
	if st.Status != models.SettlementDraft {
		t.Errorf("status: got %q", st.Status)
	}
}

func TestCompute_RoundsHalfUp(t *testing.T) {
	start, end := period(t)

	// Net of 101 cents at 50% splits 51/50, not 50/51.
	st, err := settlement.Compute(settlement.Input{
		PeriodStart:       start,
		PeriodEnd:         end,
		ProgramRevenues:   []models.MoneyLine{{Label: "r", Amount: 101}},
		KDMSharePercent:   50,
		VPlusSharePercent: 50,
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if st.KDMShare != 51 {
		t.Errorf("kdm_share: got %d, want 51", st.KDMShare)
	}
	if st.VPlusShare != 50 {
		t.Errorf("vplus_share: got %d, want 50", st.VPlusShare)
	}
}

func TestCompute_NegativeNet(t *testing.T) {
	start, end := period(t)

	st, err := settlement.Compute(settlement.Input{
		PeriodStart:        start,
		PeriodEnd:          end,
		ProgramRevenues:    []models.MoneyLine{{Label: "r", Amount: 100_000}},
		DirectProgramCosts: []models.MoneyLine{{Label: "c", Amount: 300_000}},
		KDMSharePercent:    60,
		VPlusSharePercent:  40,
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if st.NetProgramRevenue != -200_000 {
		t.Errorf("net: got %d", st.NetProgramRevenue)
	}
	if st.KDMShare+st.VPlusShare != st.NetProgramRevenue {
		t.Error("negative shares must still sum to net")
	}
	if st.KDMShare != -120_000 {
		t.Errorf("kdm_share: got %d, want -120000", st.KDMShare)
	}
}

func TestCompute_EmptyLines(t *testing.T) {
	start, end := period(t)

	st, err := settlement.Compute(settlement.Input{
		PeriodStart:       start,
		PeriodEnd:         end,
		KDMSharePercent:   60,
		VPlusSharePercent: 40,
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if st.RevenueTotal != 0 || st.CostsTotal != 0 || st.NetProgramRevenue != 0 {
		t.Error("empty inputs must compute to zero")
	}
}

func TestCompute_BadSplit(t *testing.T) {
	start, end := period(t)

	for _, pcts := range [][2]int{{60, 50}, {0, 0}, {101, -1}} {
		_, err := settlement.Compute(settlement.Input{
			PeriodStart:       start,
			PeriodEnd:         end,
			KDMSharePercent:   pcts[0],
			VPlusSharePercent: pcts[1],
		})
		if !errors.Is(err, settlement.ErrBadSplit) {
			t.Errorf("pcts %v: expected ErrBadSplit, got %v", pcts, err)
		}
	}
}

func TestCompute_BadPeriod(t *testing.T) {
	start, end := period(t)

	_, err := settlement.Compute(settlement.Input{
		PeriodStart:       end,
		PeriodEnd:         start,
		KDMSharePercent:   60,
		VPlusSharePercent: 40,
	})
	if !errors.Is(err, settlement.ErrBadPeriod) {
		t.Errorf("expected ErrBadPeriod, got %v", err)
	}
}
