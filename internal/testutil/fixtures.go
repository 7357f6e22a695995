// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreatePartner creates a test partner with the given name.
func (f *Fixtures) CreatePartner(ctx context.Context, name string) models.Partner {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Partner{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		ContactEmail: "contact@" + text.Fold(name) + ".test",
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("partners").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test partner: %v", err)
	}
	return p
}

// CreateUser creates a test user with the given role. partnerID must be
// provided for partner users and nil otherwise.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string, partnerID *primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		EmailCI:    text.Fold(email),
		AuthMethod: "password",
		Role:       role,
		Status:     models.UserActive,
		PartnerID:  partnerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAdmin creates a test admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleAdmin, nil)
}

// CreatePartnerUser creates a test user acting for the given partner.
func (f *Fixtures) CreatePartnerUser(ctx context.Context, fullName, email string, partnerID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RolePartner, &partnerID)
}

// CreateLead creates an unassigned test lead.
func (f *Fixtures) CreateLead(ctx context.Context, name, email, industry, serviceType string) models.Lead {
	f.t.Helper()

	now := time.Now().UTC()
	lead := models.Lead{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Email:       email,
		EmailCI:     text.Fold(email),
		Industry:    industry,
		ServiceType: serviceType,
		Status:      models.LeadStatusNew,
		CapturedAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("leads").InsertOne(ctx, lead); err != nil {
		f.t.Fatalf("failed to create test lead: %v", err)
	}
	return lead
}

// CreateRoutingRule creates an active routing rule for the given partner.
func (f *Fixtures) CreateRoutingRule(ctx context.Context, partnerID primitive.ObjectID, industries, serviceTypes []string, maxCapacity int) models.RoutingRule {
	f.t.Helper()

	now := time.Now().UTC()
	rule := models.RoutingRule{
		ID:           primitive.NewObjectID(),
		Industries:   industries,
		ServiceTypes: serviceTypes,
		PartnerID:    partnerID,
		MaxCapacity:  maxCapacity,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("routing_rules").InsertOne(ctx, rule); err != nil {
		f.t.Fatalf("failed to create test routing rule: %v", err)
	}
	return rule
}

// CreateCohort creates a cohort in the given lifecycle state.
func (f *Fixtures) CreateCohort(ctx context.Context, title, status string, maxParticipants int) models.Cohort {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Cohort{
		ID:              primitive.NewObjectID(),
		Title:           title,
		TitleCI:         text.Fold(title),
		Status:          status,
		MaxParticipants: maxParticipants,
		StartDate:       now.Add(7 * 24 * time.Hour),
		EndDate:         now.Add(30 * 24 * time.Hour),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := f.db.Collection("cohorts").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test cohort: %v", err)
	}
	return c
}

// CreateCohortMember enrolls a user into a cohort with an active seat.
// It does not bump the cohort's participant counter; tests that care
// about the counter go through the capacity manager instead.
func (f *Fixtures) CreateCohortMember(ctx context.Context, cohortID, userID primitive.ObjectID) models.CohortMember {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.CohortMember{
		ID:         primitive.NewObjectID(),
		CohortID:   cohortID,
		UserID:     userID,
		Status:     models.MemberActive,
		EnrolledAt: now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("cohort_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test cohort member: %v", err)
	}
	return m
}

// CreateWaitlistEntry creates a waiting entry at the given position.
func (f *Fixtures) CreateWaitlistEntry(ctx context.Context, cohortID, userID primitive.ObjectID, position int) models.WaitlistEntry {
	f.t.Helper()

	now := time.Now().UTC()
	e := models.WaitlistEntry{
		ID:        primitive.NewObjectID(),
		CohortID:  cohortID,
		UserID:    userID,
		Position:  position,
		Status:    models.WaitlistWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("cohort_waitlist").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test waitlist entry: %v", err)
	}
	return e
}
