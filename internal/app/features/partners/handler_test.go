package partners_test

import (
	"fmt"
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/features/partners"
	leadstore "github.com/kdmlabs/kdmhub/internal/app/store/leads"
	partnerstore "github.com/kdmlabs/kdmhub/internal/app/store/partners"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
	"github.com/kdmlabs/kdmhub/internal/testutil"
)

func newHandler(t *testing.T) (*partners.Handler, *partnerstore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	store := partnerstore.New(db)
	leads := leadstore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	h := partners.NewHandler(db, store, leads, zap.NewNop())
	return h, store, testutil.NewFixtures(t, db)
}

func TestServeCreate(t *testing.T) {
	h, _, _ := newHandler(t)

	req := testutil.NewJSONRequest(t, "POST", "/api/partners", map[string]any{
		"name":          "Acme Consulting",
		"contact_email": "ops@acme.test",
	})
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var p models.Partner
	rec.DecodeJSON(t, &p)
	if p.Status != "active" {
		t.Errorf("status: got %q, want active", p.Status)
	}
}

func TestServeCreate_DuplicateName(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreatePartner(ctx, "Acme Consulting")

	req := testutil.NewJSONRequest(t, "POST", "/api/partners", map[string]any{
		"name":          "ACME consulting",
		"contact_email": "ops@acme.test",
	})
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)
	rec.AssertStatus(t, http.StatusConflict)
}

func TestServeGet_IncludesOpenLeadCount(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	partner := fixtures.CreatePartner(ctx, "Acme")
	leads := leadstore.New(fixtures.DB())
	l1 := fixtures.CreateLead(ctx, "A", "a@example.com", "m", "training")
	l2 := fixtures.CreateLead(ctx, "B", "b@example.com", "m", "training")
	if err := leads.Assign(ctx, l1.ID, &partner.ID, 20, "r"); err != nil {
		t.Fatal(err)
	}
	if err := leads.Assign(ctx, l2.ID, &partner.ID, 20, "r"); err != nil {
		t.Fatal(err)
	}

	req := testutil.NewAuthenticatedRequest("GET", "/api/partners/"+partner.ID.Hex(), testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", partner.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeGet(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Partner   models.Partner `json:"partner"`
		OpenLeads int64          `json:"open_leads"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.OpenLeads != 2 {
		t.Errorf("open_leads: got %d, want 2", resp.OpenLeads)
	}
}

func TestServeUpdate_Deactivate(t *testing.T) {
	h, store, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	partner := fixtures.CreatePartner(ctx, "Acme")

	req := testutil.NewJSONRequest(t, "PUT", "/api/partners/"+partner.ID.Hex(), map[string]any{
		"name":          "Acme",
		"contact_email": partner.ContactEmail,
		"status":        "inactive",
	})
	req = testutil.WithUser(req, testutil.AdminUser())
	req = testutil.WithChiURLParam(req, "id", partner.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeUpdate(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	got, err := store.GetByID(ctx, partner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "inactive" {
		t.Errorf("status: got %q, want inactive", got.Status)
	}
}

func TestServeList_KeysetPaging(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for i := 0; i < 5; i++ {
		fixtures.CreatePartner(ctx, fmt.Sprintf("Partner %02d", i))
	}

	req := testutil.NewAuthenticatedRequest("GET", "/api/partners?limit=2", testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var page1 struct {
		Partners   []models.Partner `json:"partners"`
		Total      int64            `json:"total"`
		HasNext    bool             `json:"has_next"`
		HasPrev    bool             `json:"has_prev"`
		NextCursor string           `json:"next_cursor"`
	}
	rec.DecodeJSON(t, &page1)
	if page1.Total != 5 || len(page1.Partners) != 2 {
		t.Fatalf("page1: total=%d len=%d", page1.Total, len(page1.Partners))
	}
	if !page1.HasNext || page1.HasPrev {
		t.Errorf("page1 indicators: has_next=%v has_prev=%v", page1.HasNext, page1.HasPrev)
	}

	req = testutil.NewAuthenticatedRequest("GET", "/api/partners?limit=2&after="+page1.NextCursor, testutil.AdminUser())
	rec = testutil.NewRecorder()
	h.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var page2 struct {
		Partners []models.Partner `json:"partners"`
		HasPrev  bool             `json:"has_prev"`
	}
	rec.DecodeJSON(t, &page2)
	if len(page2.Partners) != 2 {
		t.Fatalf("page2: len=%d", len(page2.Partners))
	}
	if !page2.HasPrev {
		t.Error("page2 should report has_prev")
	}
	if page2.Partners[0].Name != "Partner 02" {
		t.Errorf("page2 starts at %q, want Partner 02", page2.Partners[0].Name)
	}
}

func TestServeList_Search(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreatePartner(ctx, "Acme Consulting")
	fixtures.CreatePartner(ctx, "Borealis Group")

	req := testutil.NewAuthenticatedRequest("GET", "/api/partners?q=acm", testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Partners []models.Partner `json:"partners"`
		Total    int64            `json:"total"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.Total != 1 || len(resp.Partners) != 1 {
		t.Fatalf("expected 1 match, got total=%d len=%d", resp.Total, len(resp.Partners))
	}
	if resp.Partners[0].Name != "Acme Consulting" {
		t.Errorf("matched %q", resp.Partners[0].Name)
	}
}
