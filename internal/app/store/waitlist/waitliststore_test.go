package waitliststore_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	waitliststore "github.com/kdmlabs/kdmhub/internal/app/store/waitlist"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
	"github.com/kdmlabs/kdmhub/internal/testutil"
)

func newStore(t *testing.T) *waitliststore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := waitliststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	return store
}

func TestStore_Add_AssignsDensePositions(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cohortID := primitive.NewObjectID()
	for want := 1; want <= 3; want++ {
		e, err := store.Add(ctx, cohortID, primitive.NewObjectID())
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if e.Position != want {
			t.Errorf("position: got %d, want %d", e.Position, want)
		}
		if e.Status != models.WaitlistWaiting {
			t.Errorf("status: got %q", e.Status)
		}
	}
}

func TestStore_Add_DuplicateUser(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cohortID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	if _, err := store.Add(ctx, cohortID, userID); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := store.Add(ctx, cohortID, userID); err != waitliststore.ErrAlreadyWaiting {
		t.Errorf("expected ErrAlreadyWaiting, got %v", err)
	}
}

func TestStore_Add_RejoinAfterExpired(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cohortID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	e, err := store.Add(ctx, cohortID, userID)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.SetStatus(ctx, e.ID, models.WaitlistExpired); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	// An expired entry no longer blocks rejoining.
	if _, err := store.Add(ctx, cohortID, userID); err != nil {
		t.Errorf("rejoin after expiry failed: %v", err)
	}
}

func TestStore_HeadWaiting(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cohortID := primitive.NewObjectID()
	if _, err := store.HeadWaiting(ctx, cohortID); err != mongo.ErrNoDocuments {
		t.Errorf("empty waitlist: expected ErrNoDocuments, got %v", err)
	}

	first, err := store.Add(ctx, cohortID, primitive.NewObjectID())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Add(ctx, cohortID, primitive.NewObjectID()); err != nil {
		t.Fatal(err)
	}

	head, err := store.HeadWaiting(ctx, cohortID)
	if err != nil {
		t.Fatalf("HeadWaiting failed: %v", err)
	}
	if head.ID != first.ID {
		t.Errorf("head: got %v, want %v", head.ID, first.ID)
	}

	// A notified head is skipped; the next waiting entry surfaces.
	if err := store.SetStatus(ctx, first.ID, models.WaitlistNotified); err != nil {
		t.Fatal(err)
	}
	head, err = store.HeadWaiting(ctx, cohortID)
	if err != nil {
		t.Fatalf("HeadWaiting failed: %v", err)
	}
	if head.ID == first.ID {
		t.Error("notified entry should not be returned as head")
	}
}

func TestStore_Reorder_ClosesGaps(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cohortID := primitive.NewObjectID()
	var entries []models.WaitlistEntry
	for i := 0; i < 4; i++ {
		e, err := store.Add(ctx, cohortID, primitive.NewObjectID())
		if err != nil {
			t.Fatal(err)
		}
		entries = append(entries, e)
	}

	// Remove position 2 and renumber.
	if err := store.SetStatus(ctx, entries[1].ID, models.WaitlistEnrolled); err != nil {
		t.Fatal(err)
	}
	if err := store.Reorder(ctx, cohortID); err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}

	live, err := store.ListByCohort(ctx, cohortID)
	if err != nil {
		t.Fatalf("ListByCohort failed: %v", err)
	}
	if len(live) != 3 {
		t.Fatalf("live entries: got %d, want 3", len(live))
	}
	wantOrder := []primitive.ObjectID{entries[0].ID, entries[2].ID, entries[3].ID}
	for i, e := range live {
		if e.Position != i+1 {
			t.Errorf("entry %d: position %d, want %d", i, e.Position, i+1)
		}
		if e.ID != wantOrder[i] {
			t.Errorf("entry %d: relative order not preserved", i)
		}
	}
}
