// internal/app/settlement/settlement.go
package settlement

import (
	"errors"
	"time"

	"github.com/kdmlabs/kdmhub/internal/app/system/money"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

var (
	ErrBadPeriod = errors.New("period_end must not precede period_start")

	// ErrBadSplit is returned when the share percentages do not sum to 100.
	ErrBadSplit = errors.New("share percentages must sum to 100")
)

// Input holds the figures a settlement is computed from, in integer cents.
type Input struct {
	PeriodStart time.Time
	PeriodEnd   time.Time

	ProgramRevenues    []models.MoneyLine
	DirectProgramCosts []models.MoneyLine

	PlatformRunCostAllowance int64
	CostRecoveryPool         int64

	KDMSharePercent   int
	VPlusSharePercent int
}

// Compute derives a draft settlement from the input. Totals are summed
// over the line items; net program revenue is the revenue total minus
// costs, the run-cost allowance, and the recovery pool. The KDM share is
// the net rounded half-up at the configured percentage and the V+ share
// is the exact remainder, so the two always sum to the net even when it
// is negative.
func Compute(in Input) (models.Settlement, error) {
	if in.PeriodEnd.Before(in.PeriodStart) {
		return models.Settlement{}, ErrBadPeriod
	}
	if in.KDMSharePercent+in.VPlusSharePercent != 100 {
		return models.Settlement{}, ErrBadSplit
	}

	revenueTotal := sumLines(in.ProgramRevenues)
	costsTotal := sumLines(in.DirectProgramCosts)
	net := revenueTotal - costsTotal - in.PlatformRunCostAllowance - in.CostRecoveryPool

	kdmShare, vplusShare, err := money.SplitPercent(net, in.KDMSharePercent)
	if err != nil {
		return models.Settlement{}, ErrBadSplit
	}

	return models.Settlement{
		PeriodStart: in.PeriodStart,
		PeriodEnd:   in.PeriodEnd,

		ProgramRevenues:    in.ProgramRevenues,
		RevenueTotal:       revenueTotal,
		DirectProgramCosts: in.DirectProgramCosts,
		CostsTotal:         costsTotal,

		PlatformRunCostAllowance: in.PlatformRunCostAllowance,
		CostRecoveryPool:         in.CostRecoveryPool,

		NetProgramRevenue: net,
		KDMShare:          kdmShare,
		VPlusShare:        vplusShare,
		KDMSharePercent:   in.KDMSharePercent,

		Status: models.SettlementDraft,
	}, nil
}

func sumLines(lines []models.MoneyLine) int64 {
	amounts := make([]money.Cents, len(lines))
	for i, l := range lines {
		amounts[i] = l.Amount
	}
	return money.Sum(amounts)
}
