package cron_test

import (
	"net/http"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/features/cron"
	"github.com/kdmlabs/kdmhub/internal/app/lifecycle"
	cohortstore "github.com/kdmlabs/kdmhub/internal/app/store/cohorts"
	leadstore "github.com/kdmlabs/kdmhub/internal/app/store/leads"
	memberstore "github.com/kdmlabs/kdmhub/internal/app/store/members"
	notifystore "github.com/kdmlabs/kdmhub/internal/app/store/notifications"
	outboxstore "github.com/kdmlabs/kdmhub/internal/app/store/outbox"
	settingsstore "github.com/kdmlabs/kdmhub/internal/app/store/settings"
	userstore "github.com/kdmlabs/kdmhub/internal/app/store/users"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
	"github.com/kdmlabs/kdmhub/internal/testutil"
)

type env struct {
	handler  *cron.Handler
	cohorts  *cohortstore.Store
	outbox   *outboxstore.Store
	settings *settingsstore.Store
	users    *userstore.Store
	fixtures *testutil.Fixtures
}

func newEnv(t *testing.T, secret string) env {
	t.Helper()
	db := testutil.SetupTestDB(t)

	cohortStore := cohortstore.New(db)
	leads := leadstore.New(db)
	members := memberstore.New(db)
	notifications := notifystore.New(db)
	outbox := outboxstore.New(db)
	settings := settingsstore.New(db)
	users := userstore.New(db)

	lc := lifecycle.NewService(cohortStore, members, notifications, nil, zap.NewNop())
	h := cron.NewHandler(lc, leads, cohortStore, settings, users, outbox, secret, zap.NewNop())
	return env{
		handler:  h,
		cohorts:  cohortStore,
		outbox:   outbox,
		settings: settings,
		users:    users,
		fixtures: testutil.NewFixtures(t, db),
	}
}

func TestRequireSecret(t *testing.T) {
	e := newEnv(t, "s3cret")

	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true })
	mw := e.handler.RequireSecret(next)

	req := testutil.NewRequest("GET", "/api/cron/cohort-sweep")
	rec := testutil.NewRecorder()
	mw.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusUnauthorized)
	if reached {
		t.Fatal("handler reached without credentials")
	}

	req = testutil.NewRequest("GET", "/api/cron/cohort-sweep")
	req.Header.Set("Authorization", "Bearer wrong")
	rec = testutil.NewRecorder()
	mw.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusUnauthorized)

	req = testutil.NewRequest("GET", "/api/cron/cohort-sweep")
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = testutil.NewRecorder()
	mw.ServeHTTP(rec, req)
	if !reached {
		t.Fatal("handler not reached with the right secret")
	}
}

func TestRequireSecret_DisabledWithoutConfig(t *testing.T) {
	e := newEnv(t, "")

	mw := e.handler.RequireSecret(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler reached with cron disabled")
	}))

	req := testutil.NewRequest("GET", "/api/cron/cohort-sweep")
	req.Header.Set("Authorization", "Bearer ")
	rec := testutil.NewRecorder()
	mw.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeCohortSweep(t *testing.T) {
	e := newEnv(t, "s3cret")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// An enrolling cohort whose start date has passed should advance.
	c := e.fixtures.CreateCohort(ctx, "Past Start", models.CohortEnrolling, 10)
	_, err := e.fixtures.DB().Collection("cohorts").UpdateByID(ctx, c.ID, bson.M{
		"$set": bson.M{"start_date": time.Now().UTC().Add(-48 * time.Hour)},
	})
	if err != nil {
		t.Fatalf("backdate start: %v", err)
	}

	req := testutil.NewRequest("GET", "/api/cron/cohort-sweep")
	rec := testutil.NewRecorder()
	e.handler.ServeCohortSweep(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Advanced int `json:"advanced"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.Advanced != 1 {
		t.Errorf("advanced: got %d, want 1", resp.Advanced)
	}

	got, err := e.cohorts.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.CohortActive {
		t.Errorf("status: got %q, want active", got.Status)
	}
}

func TestServeWeeklyDigest_UsesSettingsAudience(t *testing.T) {
	e := newEnv(t, "s3cret")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := e.settings.Save(ctx, models.SiteSettings{
		SiteName:       "KDMHub",
		DigestAudience: []string{"ops@example.com", "ceo@example.com"},
	}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	e.fixtures.CreateLead(ctx, "Lee", "lee@example.com", "manufacturing", "training")

	req := testutil.NewRequest("GET", "/api/cron/weekly-digest")
	rec := testutil.NewRecorder()
	e.handler.ServeWeeklyDigest(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Recipients int `json:"recipients"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.Recipients != 2 {
		t.Errorf("recipients: got %d, want 2", resp.Recipients)
	}

	pending, err := e.outbox.CountByStatus(ctx, models.OutboxPending)
	if err != nil {
		t.Fatal(err)
	}
	if pending != 2 {
		t.Errorf("pending outbox: got %d, want 2", pending)
	}
}

func TestServeWeeklyDigest_FallsBackToAdmins(t *testing.T) {
	e := newEnv(t, "s3cret")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fixtures.CreateAdmin(ctx, "Ada Admin", "ada@example.com")
	e.fixtures.CreateUser(ctx, "Bo Buyer", "bo@example.com", models.RoleBuyer, nil)

	req := testutil.NewRequest("GET", "/api/cron/weekly-digest")
	rec := testutil.NewRecorder()
	e.handler.ServeWeeklyDigest(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Recipients int `json:"recipients"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.Recipients != 1 {
		t.Errorf("recipients: got %d, want 1", resp.Recipients)
	}
}

func TestServeWeeklyDigest_NoAudience(t *testing.T) {
	e := newEnv(t, "s3cret")

	req := testutil.NewRequest("GET", "/api/cron/weekly-digest")
	rec := testutil.NewRecorder()
	e.handler.ServeWeeklyDigest(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Recipients int `json:"recipients"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.Recipients != 0 {
		t.Errorf("recipients: got %d, want 0", resp.Recipients)
	}
}
