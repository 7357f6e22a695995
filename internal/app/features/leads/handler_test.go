package leads_test

import (
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/features/leads"
	"github.com/kdmlabs/kdmhub/internal/app/routing"
	leadstore "github.com/kdmlabs/kdmhub/internal/app/store/leads"
	outboxstore "github.com/kdmlabs/kdmhub/internal/app/store/outbox"
	partnerstore "github.com/kdmlabs/kdmhub/internal/app/store/partners"
	rulestore "github.com/kdmlabs/kdmhub/internal/app/store/routingrules"
	settingsstore "github.com/kdmlabs/kdmhub/internal/app/store/settings"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
	"github.com/kdmlabs/kdmhub/internal/testutil"
)

type env struct {
	handler  *leads.Handler
	leads    *leadstore.Store
	outbox   *outboxstore.Store
	fixtures *testutil.Fixtures
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)

	leadStore := leadstore.New(db)
	rules := rulestore.New(db)
	partners := partnerstore.New(db)
	outbox := outboxstore.New(db)
	settings := settingsstore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := leadStore.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	router := routing.NewRouter(leadStore, rules, partners, outbox, settings, nil, zap.NewNop())
	handler := leads.NewHandler(leadStore, router, nil, zap.NewNop())
	return env{
		handler:  handler,
		leads:    leadStore,
		outbox:   outbox,
		fixtures: testutil.NewFixtures(t, db),
	}
}

func TestServeCapture(t *testing.T) {
	e := newEnv(t)

	req := testutil.NewJSONRequest(t, "POST", "/api/leads", map[string]any{
		"name":         "Pat Doe",
		"email":        "pat@example.com",
		"industry":     "manufacturing",
		"service_type": "training",
	})
	rec := testutil.NewRecorder()
	e.handler.ServeCapture(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	var resp struct {
		LeadID string `json:"lead_id"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.LeadID == "" {
		t.Fatal("expected lead_id in response")
	}
}

func TestServeCapture_RoutesToMatchingPartner(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	partner := e.fixtures.CreatePartner(ctx, "Acme Consulting")
	e.fixtures.CreateRoutingRule(ctx, partner.ID, []string{"manufacturing"}, []string{"training"}, 5)

	req := testutil.NewJSONRequest(t, "POST", "/api/leads", map[string]any{
		"name":         "Pat Doe",
		"email":        "routed@example.com",
		"industry":     "manufacturing",
		"service_type": "training",
	})
	rec := testutil.NewRecorder()
	e.handler.ServeCapture(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	got, err := e.leads.List(ctx, leadstore.Filter{PartnerID: &partner.ID}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected the lead assigned to the partner, found %d", len(got))
	}
	if got[0].RoutingScore != 25 {
		t.Errorf("routing_score: got %d, want 25", got[0].RoutingScore)
	}

	// The partner notification is queued.
	pending, err := e.outbox.ListPending(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Errorf("expected 1 queued email, got %d", len(pending))
	}
}

func TestServeCapture_Validation(t *testing.T) {
	e := newEnv(t)

	req := testutil.NewJSONRequest(t, "POST", "/api/leads", map[string]any{
		"name":  "P",
		"email": "not-an-email",
	})
	rec := testutil.NewRecorder()
	e.handler.ServeCapture(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "name")
}

func TestServeCapture_DuplicateEmail(t *testing.T) {
	e := newEnv(t)

	body := map[string]any{"name": "Pat Doe", "email": "dup@example.com"}
	rec := testutil.NewRecorder()
	e.handler.ServeCapture(rec, testutil.NewJSONRequest(t, "POST", "/api/leads", body))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	e.handler.ServeCapture(rec, testutil.NewJSONRequest(t, "POST", "/api/leads", body))
	rec.AssertStatus(t, http.StatusConflict)
}

func TestServeList_PartnerScoped(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mine := e.fixtures.CreatePartner(ctx, "Mine")
	other := e.fixtures.CreatePartner(ctx, "Other")
	l1 := e.fixtures.CreateLead(ctx, "A", "a@example.com", "m", "training")
	l2 := e.fixtures.CreateLead(ctx, "B", "b@example.com", "m", "training")
	if err := e.leads.Assign(ctx, l1.ID, &mine.ID, 20, "r"); err != nil {
		t.Fatal(err)
	}
	if err := e.leads.Assign(ctx, l2.ID, &other.ID, 20, "r"); err != nil {
		t.Fatal(err)
	}

	// A partner user sees only their own leads, even when they ask for
	// another partner's.
	req := testutil.NewAuthenticatedRequest("GET", "/api/leads?partner_id="+other.ID.Hex(), testutil.PartnerUser(mine.ID))
	rec := testutil.NewRecorder()
	e.handler.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Leads []models.Lead `json:"leads"`
		Total int64         `json:"total"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.Total != 1 || len(resp.Leads) != 1 {
		t.Fatalf("expected 1 lead, got total=%d len=%d", resp.Total, len(resp.Leads))
	}
	if resp.Leads[0].ID != l1.ID {
		t.Error("partner saw another partner's lead")
	}

	// Admins see everything.
	req = testutil.NewAuthenticatedRequest("GET", "/api/leads", testutil.AdminUser())
	rec = testutil.NewRecorder()
	e.handler.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &resp)
	if resp.Total != 2 {
		t.Errorf("admin total: got %d, want 2", resp.Total)
	}
}

func TestServeList_BuyerForbidden(t *testing.T) {
	e := newEnv(t)

	req := testutil.NewAuthenticatedRequest("GET", "/api/leads", testutil.BuyerUser())
	rec := testutil.NewRecorder()
	e.handler.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeGet(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mine := e.fixtures.CreatePartner(ctx, "Mine")
	other := e.fixtures.CreatePartner(ctx, "Other")
	lead := e.fixtures.CreateLead(ctx, "A", "a@example.com", "m", "training")
	if err := e.leads.Assign(ctx, lead.ID, &other.ID, 20, "r"); err != nil {
		t.Fatal(err)
	}

	req := testutil.NewAuthenticatedRequest("GET", "/api/leads/"+lead.ID.Hex(), testutil.PartnerUser(mine.ID))
	req = testutil.WithChiURLParam(req, "id", lead.ID.Hex())
	rec := testutil.NewRecorder()
	e.handler.ServeGet(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)

	req = testutil.NewAuthenticatedRequest("GET", "/api/leads/"+lead.ID.Hex(), testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", lead.ID.Hex())
	rec = testutil.NewRecorder()
	e.handler.ServeGet(rec, req)
	rec.AssertStatus(t, http.StatusOK)
}

func TestServeGet_NotFound(t *testing.T) {
	e := newEnv(t)

	missing := "ffffffffffffffffffffffff"
	req := testutil.NewAuthenticatedRequest("GET", "/api/leads/"+missing, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", missing)
	rec := testutil.NewRecorder()
	e.handler.ServeGet(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeUpdate_PartnerStatusChange(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	partner := e.fixtures.CreatePartner(ctx, "Mine")
	lead := e.fixtures.CreateLead(ctx, "A", "a@example.com", "m", "training")
	if err := e.leads.Assign(ctx, lead.ID, &partner.ID, 20, "r"); err != nil {
		t.Fatal(err)
	}

	req := testutil.NewJSONRequest(t, "PUT", "/api/leads/"+lead.ID.Hex(), map[string]any{
		"status": models.LeadStatusContacted,
	})
	req = testutil.WithUser(req, testutil.PartnerUser(partner.ID))
	req = testutil.WithChiURLParam(req, "id", lead.ID.Hex())
	rec := testutil.NewRecorder()
	e.handler.ServeUpdate(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	got, err := e.leads.GetByID(ctx, lead.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.LeadStatusContacted {
		t.Errorf("status: got %q", got.Status)
	}
}

func TestServeUpdate_ReassignIsAdminOnly(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	partner := e.fixtures.CreatePartner(ctx, "Mine")
	target := e.fixtures.CreatePartner(ctx, "Target")
	lead := e.fixtures.CreateLead(ctx, "A", "a@example.com", "m", "training")
	if err := e.leads.Assign(ctx, lead.ID, &partner.ID, 20, "r"); err != nil {
		t.Fatal(err)
	}

	body := map[string]any{"partner_id": target.ID.Hex()}

	req := testutil.NewJSONRequest(t, "PUT", "/api/leads/"+lead.ID.Hex(), body)
	req = testutil.WithUser(req, testutil.PartnerUser(partner.ID))
	req = testutil.WithChiURLParam(req, "id", lead.ID.Hex())
	rec := testutil.NewRecorder()
	e.handler.ServeUpdate(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)

	req = testutil.NewJSONRequest(t, "PUT", "/api/leads/"+lead.ID.Hex(), body)
	req = testutil.WithUser(req, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", lead.ID.Hex())
	rec = testutil.NewRecorder()
	e.handler.ServeUpdate(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	got, err := e.leads.GetByID(ctx, lead.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PartnerID == nil || *got.PartnerID != target.ID {
		t.Error("expected lead reassigned to target partner")
	}
}
