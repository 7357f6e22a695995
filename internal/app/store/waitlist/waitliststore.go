// internal/app/store/waitlist/waitliststore.go
package waitliststore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

// ErrAlreadyWaiting is returned when the user already holds a waiting
// or notified entry for the cohort.
var ErrAlreadyWaiting = errors.New("user is already on this cohort's waitlist")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("cohort_waitlist")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			// One live entry per user per cohort. Enrolled/expired
			// entries fall out of the partial index so the user can
			// rejoin later.
			Keys: bson.D{{Key: "cohort_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
				"status": bson.M{"$in": bson.A{models.WaitlistWaiting, models.WaitlistNotified}},
			}),
		},
		{Keys: bson.D{{Key: "cohort_id", Value: 1}, {Key: "status", Value: 1}, {Key: "position", Value: 1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Add appends a user to the tail of the cohort's waitlist and returns
// the created entry with its 1-based position.
func (s *Store) Add(ctx context.Context, cohortID, userID primitive.ObjectID) (models.WaitlistEntry, error) {
	last, err := s.lastWaitingPosition(ctx, cohortID)
	if err != nil {
		return models.WaitlistEntry{}, err
	}

	now := time.Now().UTC()
	e := models.WaitlistEntry{
		ID:        primitive.NewObjectID(),
		CohortID:  cohortID,
		UserID:    userID,
		Position:  last + 1,
		Status:    models.WaitlistWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		if wafflemongo.IsDup(err) {
			return models.WaitlistEntry{}, ErrAlreadyWaiting
		}
		return models.WaitlistEntry{}, err
	}
	return e, nil
}

func (s *Store) lastWaitingPosition(ctx context.Context, cohortID primitive.ObjectID) (int, error) {
	var last models.WaitlistEntry
	opts := options.FindOne().SetSort(bson.D{{Key: "position", Value: -1}})
	err := s.c.FindOne(ctx, bson.M{
		"cohort_id": cohortID,
		"status":    bson.M{"$in": bson.A{models.WaitlistWaiting, models.WaitlistNotified}},
	}, opts).Decode(&last)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return last.Position, nil
}

// HeadWaiting returns the lowest-position waiting entry, or
// mongo.ErrNoDocuments when the waitlist is empty.
func (s *Store) HeadWaiting(ctx context.Context, cohortID primitive.ObjectID) (models.WaitlistEntry, error) {
	var e models.WaitlistEntry
	opts := options.FindOne().SetSort(bson.D{{Key: "position", Value: 1}})
	err := s.c.FindOne(ctx, bson.M{
		"cohort_id": cohortID,
		"status":    models.WaitlistWaiting,
	}, opts).Decode(&e)
	if err != nil {
		return models.WaitlistEntry{}, err
	}
	return e, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.WaitlistEntry, error) {
	var e models.WaitlistEntry
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return models.WaitlistEntry{}, err
	}
	return e, nil
}

// SetStatus updates one entry's status.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// ListByCohort returns live (waiting or notified) entries in position order.
func (s *Store) ListByCohort(ctx context.Context, cohortID primitive.ObjectID) ([]models.WaitlistEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cursor, err := s.c.Find(ctx, bson.M{
		"cohort_id": cohortID,
		"status":    bson.M{"$in": bson.A{models.WaitlistWaiting, models.WaitlistNotified}},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.WaitlistEntry
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Reorder renumbers a cohort's live entries to a dense 1..N sequence,
// preserving their relative order. Every path that removes an entry
// from the list calls this afterwards.
func (s *Store) Reorder(ctx context.Context, cohortID primitive.ObjectID) error {
	entries, err := s.ListByCohort(ctx, cohortID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for i, e := range entries {
		want := i + 1
		if e.Position == want {
			continue
		}
		_, err := s.c.UpdateByID(ctx, e.ID, bson.M{"$set": bson.M{
			"position":   want,
			"updated_at": now,
		}})
		if err != nil {
			return err
		}
	}
	return nil
}

// CountWaiting returns the number of waiting entries for a cohort.
func (s *Store) CountWaiting(ctx context.Context, cohortID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"cohort_id": cohortID,
		"status":    models.WaitlistWaiting,
	})
}
