package routingrules_test

import (
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/features/routingrules"
	partnerstore "github.com/kdmlabs/kdmhub/internal/app/store/partners"
	rulestore "github.com/kdmlabs/kdmhub/internal/app/store/routingrules"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
	"github.com/kdmlabs/kdmhub/internal/testutil"
)

func newHandler(t *testing.T) (*routingrules.Handler, *rulestore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	rules := rulestore.New(db)
	partners := partnerstore.New(db)
	h := routingrules.NewHandler(rules, partners, nil, zap.NewNop())
	return h, rules, testutil.NewFixtures(t, db)
}

func TestServeCreate(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	partner := fixtures.CreatePartner(ctx, "Acme")

	req := testutil.NewJSONRequest(t, "POST", "/api/routing-rules", map[string]any{
		"industries":    []string{"manufacturing"},
		"service_types": []string{"training"},
		"partner_id":    partner.ID.Hex(),
		"max_capacity":  5,
		"is_active":     true,
	})
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var rule models.RoutingRule
	rec.DecodeJSON(t, &rule)
	if rule.PartnerID != partner.ID {
		t.Errorf("partner_id: got %v", rule.PartnerID)
	}
	if !rule.IsActive || rule.MaxCapacity != 5 {
		t.Error("rule fields not persisted")
	}
}

func TestServeCreate_UnknownPartner(t *testing.T) {
	h, _, _ := newHandler(t)

	req := testutil.NewJSONRequest(t, "POST", "/api/routing-rules", map[string]any{
		"industries":   []string{"manufacturing"},
		"partner_id":   "ffffffffffffffffffffffff",
		"max_capacity": 5,
	})
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "partner")
}

func TestServeCreate_NegativeCapacity(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	partner := fixtures.CreatePartner(ctx, "Acme")

	req := testutil.NewJSONRequest(t, "POST", "/api/routing-rules", map[string]any{
		"partner_id":   partner.ID.Hex(),
		"max_capacity": -1,
	})
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeUpdate(t *testing.T) {
	h, rules, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	partner := fixtures.CreatePartner(ctx, "Acme")
	rule := fixtures.CreateRoutingRule(ctx, partner.ID, []string{"manufacturing"}, nil, 5)

	req := testutil.NewJSONRequest(t, "PUT", "/api/routing-rules/"+rule.ID.Hex(), map[string]any{
		"industries":   []string{"aerospace"},
		"partner_id":   partner.ID.Hex(),
		"max_capacity": 10,
		"is_active":    false,
	})
	req = testutil.WithUser(req, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", rule.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeUpdate(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	got, err := rules.GetByID(ctx, rule.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.MaxCapacity != 10 || got.IsActive {
		t.Error("update not persisted")
	}
	if len(got.Industries) != 1 || got.Industries[0] != "aerospace" {
		t.Errorf("industries: got %v", got.Industries)
	}
}

func TestServeDelete(t *testing.T) {
	h, rules, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	partner := fixtures.CreatePartner(ctx, "Acme")
	rule := fixtures.CreateRoutingRule(ctx, partner.ID, []string{"m"}, nil, 5)

	req := testutil.NewAuthenticatedRequest("DELETE", "/api/routing-rules/"+rule.ID.Hex(), testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", rule.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeDelete(rec, req)
	rec.AssertStatus(t, http.StatusNoContent)

	if _, err := rules.GetByID(ctx, rule.ID); err == nil {
		t.Error("expected rule deleted")
	}

	// Deleting again is a 404.
	rec = testutil.NewRecorder()
	h.ServeDelete(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeList(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	partner := fixtures.CreatePartner(ctx, "Acme")
	fixtures.CreateRoutingRule(ctx, partner.ID, []string{"m"}, nil, 5)
	fixtures.CreateRoutingRule(ctx, partner.ID, []string{"a"}, nil, 5)

	req := testutil.NewAuthenticatedRequest("GET", "/api/routing-rules", testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Rules []models.RoutingRule `json:"rules"`
	}
	rec.DecodeJSON(t, &resp)
	if len(resp.Rules) != 2 {
		t.Errorf("rules: got %d, want 2", len(resp.Rules))
	}
}
