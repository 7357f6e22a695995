package leadstore_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	leadstore "github.com/kdmlabs/kdmhub/internal/app/store/leads"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
	"github.com/kdmlabs/kdmhub/internal/testutil"
)

func newStore(t *testing.T) (*leadstore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := leadstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	return store, testutil.NewFixtures(t, db)
}

func TestStore_Create(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Lead{
		Name:        "  Pat Doe  ",
		Email:       " Pat@Example.COM ",
		Industry:    "manufacturing",
		ServiceType: "training",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Name != "Pat Doe" {
		t.Errorf("Name: got %q", created.Name)
	}
	if created.Email != "pat@example.com" {
		t.Errorf("Email: got %q", created.Email)
	}
	if created.EmailCI == "" {
		t.Error("expected EmailCI to be set")
	}
	if created.Status != models.LeadStatusNew {
		t.Errorf("Status: got %q, want %q", created.Status, models.LeadStatusNew)
	}
	if created.PartnerID != nil {
		t.Error("new leads must be unassigned")
	}
	if created.CapturedAt.IsZero() || created.CreatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	store, _ := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Lead{Name: "A", Email: "dup@example.com"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	// Same address, different case, still a duplicate.
	_, err := store.Create(ctx, models.Lead{Name: "B", Email: "DUP@example.com"})
	if err != leadstore.ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_Assign(t *testing.T) {
	store, fixtures := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	partner := fixtures.CreatePartner(ctx, "Acme Consulting")
	lead := fixtures.CreateLead(ctx, "Pat", "assign@example.com", "manufacturing", "training")

	if err := store.Assign(ctx, lead.ID, &partner.ID, 25, "rule matched industry+service"); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	got, err := store.GetByID(ctx, lead.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.PartnerID == nil || *got.PartnerID != partner.ID {
		t.Errorf("PartnerID: got %v, want %v", got.PartnerID, partner.ID)
	}
	if got.AssignedAt == nil {
		t.Error("expected AssignedAt to be set")
	}
	if got.RoutingScore != 25 {
		t.Errorf("RoutingScore: got %d, want 25", got.RoutingScore)
	}

	// Clearing the assignment returns the lead to the default queue.
	if err := store.Assign(ctx, lead.ID, nil, 0, "no positive rule"); err != nil {
		t.Fatalf("Assign(nil) failed: %v", err)
	}
	got, err = store.GetByID(ctx, lead.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.PartnerID != nil || got.AssignedAt != nil {
		t.Error("expected assignment cleared")
	}
}

func TestStore_CountOpenByPartner(t *testing.T) {
	store, fixtures := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	partner := fixtures.CreatePartner(ctx, "Acme")
	l1 := fixtures.CreateLead(ctx, "A", "a@example.com", "m", "training")
	l2 := fixtures.CreateLead(ctx, "B", "b@example.com", "m", "training")
	if err := store.Assign(ctx, l1.ID, &partner.ID, 20, "r"); err != nil {
		t.Fatal(err)
	}
	if err := store.Assign(ctx, l2.ID, &partner.ID, 20, "r"); err != nil {
		t.Fatal(err)
	}

	n, err := store.CountOpenByPartner(ctx, partner.ID)
	if err != nil {
		t.Fatalf("CountOpenByPartner failed: %v", err)
	}
	if n != 2 {
		t.Errorf("open count: got %d, want 2", n)
	}

	// Only new and contacted leads count against capacity.
	if err := store.ApplyUpdate(ctx, l1.ID, leadstore.Update{Status: models.LeadStatusQualified}); err != nil {
		t.Fatalf("ApplyUpdate failed: %v", err)
	}
	n, err = store.CountOpenByPartner(ctx, partner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("open count after qualification: got %d, want 1", n)
	}
}

func TestStore_List_Filters(t *testing.T) {
	store, fixtures := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	partner := fixtures.CreatePartner(ctx, "Acme")
	assigned := fixtures.CreateLead(ctx, "A", "a@example.com", "m", "training")
	fixtures.CreateLead(ctx, "B", "b@example.com", "m", "training")
	if err := store.Assign(ctx, assigned.ID, &partner.ID, 20, "r"); err != nil {
		t.Fatal(err)
	}

	mine, err := store.List(ctx, leadstore.Filter{PartnerID: &partner.ID}, 50, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != assigned.ID {
		t.Errorf("partner filter returned %d leads", len(mine))
	}

	queue, err := store.List(ctx, leadstore.Filter{Unassigned: true}, 50, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(queue) != 1 || queue[0].ID == assigned.ID {
		t.Errorf("unassigned filter returned %d leads", len(queue))
	}
}
