package settlements_test

import (
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/features/settlements"
	settlementstore "github.com/kdmlabs/kdmhub/internal/app/store/settlements"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
	"github.com/kdmlabs/kdmhub/internal/testutil"
)

func newHandler(t *testing.T) (*settlements.Handler, *settlementstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := settlementstore.New(db)
	return settlements.NewHandler(store, 60, nil, zap.NewNop()), store
}

func createBody() map[string]any {
	return map[string]any{
		"period_start": "2026-07-01T00:00:00Z",
		"period_end":   "2026-07-31T00:00:00Z",
		"program_revenues": []map[string]any{
			{"label": "cohort fees", "amount_cents": 1500000},
			{"label": "sponsorships", "amount_cents": 250000},
		},
		"direct_program_costs": []map[string]any{
			{"label": "instructor fees", "amount_cents": 450000},
		},
		"platform_run_cost_allowance_cents": 200000,
		"cost_recovery_pool_cents":          100000,
	}
}

func TestServeCreate(t *testing.T) {
	h, _ := newHandler(t)

	req := testutil.NewJSONRequest(t, "POST", "/api/settlements", createBody())
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var st models.Settlement
	rec.DecodeJSON(t, &st)
	if st.Status != models.SettlementDraft {
		t.Errorf("status: got %q, want draft", st.Status)
	}
	if st.RevenueTotal != 1750000 || st.CostsTotal != 450000 {
		t.Errorf("totals: revenue=%d costs=%d", st.RevenueTotal, st.CostsTotal)
	}
	if st.NetProgramRevenue != 1000000 {
		t.Errorf("net: got %d, want 1000000", st.NetProgramRevenue)
	}
	// Default split applies when the request names none.
	if st.KDMSharePercent != 60 || st.KDMShare != 600000 || st.VPlusShare != 400000 {
		t.Errorf("split: pct=%d kdm=%d vplus=%d", st.KDMSharePercent, st.KDMShare, st.VPlusShare)
	}
}

func TestServeCreate_ExplicitSplit(t *testing.T) {
	h, _ := newHandler(t)

	body := createBody()
	body["kdm_share_percent"] = 70

	req := testutil.NewJSONRequest(t, "POST", "/api/settlements", body)
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var st models.Settlement
	rec.DecodeJSON(t, &st)
	if st.KDMShare != 700000 || st.VPlusShare != 300000 {
		t.Errorf("split: kdm=%d vplus=%d", st.KDMShare, st.VPlusShare)
	}
}

func TestServeCreate_BadPeriod(t *testing.T) {
	h, _ := newHandler(t)

	body := createBody()
	body["period_start"] = "2026-08-01T00:00:00Z"

	req := testutil.NewJSONRequest(t, "POST", "/api/settlements", body)
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "period")
}

func TestServeFinalize(t *testing.T) {
	h, store := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := testutil.NewJSONRequest(t, "POST", "/api/settlements", createBody())
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var st models.Settlement
	rec.DecodeJSON(t, &st)

	fin := testutil.NewAuthenticatedRequest("POST", "/api/settlements/"+st.ID.Hex()+"/finalize", testutil.AdminUser())
	fin = testutil.WithChiURLParam(fin, "id", st.ID.Hex())
	rec = testutil.NewRecorder()
	h.ServeFinalize(rec, fin)
	rec.AssertStatus(t, http.StatusOK)

	got, err := store.GetByID(ctx, st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.SettlementFinalized || got.FinalizedAt == nil {
		t.Errorf("settlement not finalized: %+v", got)
	}

	// Finalizing twice is a conflict.
	rec = testutil.NewRecorder()
	h.ServeFinalize(rec, fin)
	rec.AssertStatus(t, http.StatusConflict)
}

func TestServeFinalize_NotFound(t *testing.T) {
	h, _ := newHandler(t)

	missing := "ffffffffffffffffffffffff"
	req := testutil.NewAuthenticatedRequest("POST", "/api/settlements/"+missing+"/finalize", testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", missing)
	rec := testutil.NewRecorder()
	h.ServeFinalize(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeUpdateNotes_AfterFinalize(t *testing.T) {
	h, store := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Settlement{KDMSharePercent: 60})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Finalize(ctx, created.ID); err != nil {
		t.Fatal(err)
	}

	req := testutil.NewJSONRequest(t, "PUT", "/api/settlements/"+created.ID.Hex()+"/notes", map[string]any{
		"notes": "reviewed with finance",
	})
	req = testutil.WithUser(req, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", created.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeUpdateNotes(rec, req)
	rec.AssertStatus(t, http.StatusNoContent)

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Notes != "reviewed with finance" {
		t.Errorf("notes: got %q", got.Notes)
	}
}

func TestServeList_StatusFilter(t *testing.T) {
	h, store := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, err := store.Create(ctx, models.Settlement{KDMSharePercent: 60})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Create(ctx, models.Settlement{KDMSharePercent: 60}); err != nil {
		t.Fatal(err)
	}
	if err := store.Finalize(ctx, a.ID); err != nil {
		t.Fatal(err)
	}

	req := testutil.NewAuthenticatedRequest("GET", "/api/settlements?status=finalized", testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Settlements []models.Settlement `json:"settlements"`
	}
	rec.DecodeJSON(t, &resp)
	if len(resp.Settlements) != 1 {
		t.Errorf("settlements: got %d, want 1", len(resp.Settlements))
	}
}
