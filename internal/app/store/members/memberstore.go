// internal/app/store/members/memberstore.go
package memberstore

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

// ErrAlreadyEnrolled is returned when a user already holds a seat in
// the cohort.
var ErrAlreadyEnrolled = errors.New("user is already enrolled in this cohort")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("cohort_members")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cohort_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Enroll inserts an active membership record.
func (s *Store) Enroll(ctx context.Context, cohortID, userID primitive.ObjectID) (models.CohortMember, error) {
	now := time.Now().UTC()
	m := models.CohortMember{
		ID:         primitive.NewObjectID(),
		CohortID:   cohortID,
		UserID:     userID,
		Status:     models.MemberActive,
		EnrolledAt: now,
		UpdatedAt:  now,
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.CohortMember{}, ErrAlreadyEnrolled
		}
		return models.CohortMember{}, err
	}
	return m, nil
}

func (s *Store) Get(ctx context.Context, cohortID, userID primitive.ObjectID) (models.CohortMember, error) {
	var m models.CohortMember
	err := s.c.FindOne(ctx, bson.M{"cohort_id": cohortID, "user_id": userID}).Decode(&m)
	if err != nil {
		return models.CohortMember{}, err
	}
	return m, nil
}

// SetStatus moves a member to completed or dropped. Only active seats
// can change state; returns mongo.ErrNoDocuments when there is no
// active membership to update.
func (s *Store) SetStatus(ctx context.Context, cohortID, userID primitive.ObjectID, status string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"cohort_id": cohortID, "user_id": userID, "status": models.MemberActive},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByCohort returns all membership records for a cohort, oldest first.
func (s *Store) ListByCohort(ctx context.Context, cohortID primitive.ObjectID) ([]models.CohortMember, error) {
	opts := options.Find().SetSort(bson.D{{Key: "enrolled_at", Value: 1}})
	cursor, err := s.c.Find(ctx, bson.M{"cohort_id": cohortID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.CohortMember
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountActive returns the number of active seats in a cohort.
func (s *Store) CountActive(ctx context.Context, cohortID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"cohort_id": cohortID, "status": models.MemberActive})
}
