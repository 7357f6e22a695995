// internal/app/store/cohorts/cohortstore.go
package cohortstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kdmlabs/kdmhub/internal/app/system/normalize"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

type Store struct {
	c           *mongo.Collection
	transitions *mongo.Collection
}

var (
	// ErrStateChanged is returned when a compare-and-set transition
	// finds the cohort no longer in the expected state.
	ErrStateChanged = errors.New("cohort is no longer in the expected state")
	errBadDates     = errors.New("end_date must not precede start_date")
)

func New(db *mongo.Database) *Store {
	return &Store{
		c:           db.Collection("cohorts"),
		transitions: db.Collection("cohort_transitions"),
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	cohortIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "start_date", Value: 1}}},
		{Keys: bson.D{{Key: "title_ci", Value: 1}}},
	}
	if _, err := s.c.Indexes().CreateMany(ctx, cohortIdx); err != nil {
		return err
	}
	transIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "cohort_id", Value: 1}, {Key: "triggered_at", Value: -1}}},
	}
	_, err := s.transitions.Indexes().CreateMany(ctx, transIdx)
	return err
}

// Create inserts a new cohort in the draft state.
func (s *Store) Create(ctx context.Context, c models.Cohort) (models.Cohort, error) {
	if c.EndDate.Before(c.StartDate) {
		return models.Cohort{}, errBadDates
	}
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Title = normalize.Name(c.Title)
	c.TitleCI = text.Fold(c.Title)
	c.Status = models.CohortDraft
	c.CurrentParticipants = 0
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Cohort{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Cohort, error) {
	var c models.Cohort
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Cohort{}, err
	}
	return c, nil
}

// UpdateInfo mutates descriptive fields. Lifecycle state changes go
// through CompareAndSetStatus instead.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, title, description string, instructorID *primitive.ObjectID, maxParticipants int) error {
	set := bson.M{
		"description": description,
		"updated_at":  time.Now().UTC(),
	}
	if normalize.Name(title) != "" {
		set["title"] = normalize.Name(title)
		set["title_ci"] = text.Fold(normalize.Name(title))
	}
	if maxParticipants > 0 {
		set["max_participants"] = maxParticipants
	}
	if instructorID != nil {
		set["instructor_id"] = instructorID
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// CompareAndSetStatus moves a cohort from one lifecycle state to
// another, failing with ErrStateChanged if a concurrent writer got
// there first. Extra per-state fields (enrollment_opened_at) are set
// through extraSet.
func (s *Store) CompareAndSetStatus(ctx context.Context, id primitive.ObjectID, from, to string, extraSet bson.M) error {
	set := bson.M{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range extraSet {
		set[k] = v
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStateChanged
	}
	return nil
}

// IncParticipants atomically adjusts the participant counter. When
// delta is positive and guardCapacity is true, the update only matches
// while current_participants is below max_participants, so two
// concurrent enrollments cannot both take the last seat.
func (s *Store) IncParticipants(ctx context.Context, id primitive.ObjectID, delta int, guardCapacity bool) error {
	filter := bson.M{"_id": id}
	if delta > 0 && guardCapacity {
		filter["$expr"] = bson.M{"$lt": bson.A{"$current_participants", "$max_participants"}}
	}
	if delta < 0 {
		// Never drive the counter negative.
		filter["current_participants"] = bson.M{"$gte": -delta}
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{
		"$inc": bson.M{"current_participants": delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStateChanged
	}
	return nil
}

// List returns cohorts, optionally filtered by status, start date ascending.
func (s *Store) List(ctx context.Context, status string, limit, offset int64) ([]models.Cohort, error) {
	q := bson.M{}
	if status != "" {
		q["status"] = status
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var cohorts []models.Cohort
	if err := cursor.All(ctx, &cohorts); err != nil {
		return nil, err
	}
	return cohorts, nil
}

// ListSweepCandidates returns cohorts in states the background sweep
// may advance on a date boundary: scheduled, enrolling, and active.
func (s *Store) ListSweepCandidates(ctx context.Context) ([]models.Cohort, error) {
	q := bson.M{"status": bson.M{"$in": bson.A{
		models.CohortScheduled, models.CohortEnrolling, models.CohortActive,
	}}}
	cursor, err := s.c.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var cohorts []models.Cohort
	if err := cursor.All(ctx, &cohorts); err != nil {
		return nil, err
	}
	return cohorts, nil
}

// CountByStatus returns the number of cohorts in the given state.
func (s *Store) CountByStatus(ctx context.Context, status string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": status})
}

// RecordTransition appends one audit record to cohort_transitions.
func (s *Store) RecordTransition(ctx context.Context, t models.CohortTransition) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if t.TriggeredAt.IsZero() {
		t.TriggeredAt = time.Now().UTC()
	}
	_, err := s.transitions.InsertOne(ctx, t)
	return err
}

// Transitions returns a cohort's transition history, newest first.
func (s *Store) Transitions(ctx context.Context, cohortID primitive.ObjectID) ([]models.CohortTransition, error) {
	opts := options.Find().SetSort(bson.D{{Key: "triggered_at", Value: -1}})
	cursor, err := s.transitions.Find(ctx, bson.M{"cohort_id": cohortID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.CohortTransition
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountTransitionsSince returns transitions recorded at or after the
// cutoff. Used by the weekly digest.
func (s *Store) CountTransitionsSince(ctx context.Context, since time.Time) (int64, error) {
	return s.transitions.CountDocuments(ctx, bson.M{"triggered_at": bson.M{"$gte": since}})
}
