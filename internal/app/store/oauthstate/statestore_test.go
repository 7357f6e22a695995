package oauthstate_test

import (
	"testing"
	"time"

	"github.com/kdmlabs/kdmhub/internal/app/store/oauthstate"
	"github.com/kdmlabs/kdmhub/internal/testutil"
)

func newStore(t *testing.T) *oauthstate.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	return store
}

func TestStore_ValidateConsumesState(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	expires := time.Now().UTC().Add(10 * time.Minute)
	if err := store.Save(ctx, "state-abc", "/cohorts", expires); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	returnURL, valid, err := store.Validate(ctx, "state-abc")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !valid || returnURL != "/cohorts" {
		t.Errorf("got valid=%v returnURL=%q", valid, returnURL)
	}

	// One-time use: a second validation fails.
	_, valid, err = store.Validate(ctx, "state-abc")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if valid {
		t.Error("state validated twice")
	}
}

func TestStore_ValidateExpired(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	expires := time.Now().UTC().Add(-time.Minute)
	if err := store.Save(ctx, "stale", "", expires); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	_, valid, err := store.Validate(ctx, "stale")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if valid {
		t.Error("expired state validated")
	}
}

func TestStore_ValidateUnknown(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, valid, err := store.Validate(ctx, "never-saved")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if valid {
		t.Error("unknown state validated")
	}
}

func TestStore_CleanupExpired(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Save(ctx, "old", "", time.Now().UTC().Add(-time.Hour)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, "fresh", "", time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	removed, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed: got %d, want 1", removed)
	}

	_, valid, err := store.Validate(ctx, "fresh")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !valid {
		t.Error("fresh state should survive cleanup")
	}
}
