// internal/app/store/introductions/introstore.go
package introstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

var errBadStatus = errors.New(`status must be "proposed"|"accepted"|"declined"`)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("introductions")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "partner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "sme_user_id", Value: 1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *Store) Create(ctx context.Context, in models.Introduction) (models.Introduction, error) {
	now := time.Now().UTC()
	in.ID = primitive.NewObjectID()
	in.Status = models.IntroProposed
	in.CreatedAt = now
	in.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, in); err != nil {
		return models.Introduction{}, err
	}
	return in, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Introduction, error) {
	var in models.Introduction
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&in); err != nil {
		return models.Introduction{}, err
	}
	return in, nil
}

// SetStatus resolves a proposed introduction. Only proposed entries can
// change state.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status, notes string) error {
	if status != models.IntroAccepted && status != models.IntroDeclined {
		return errBadStatus
	}
	set := bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if notes != "" {
		set["notes"] = notes
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.IntroProposed},
		bson.M{"$set": set},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListByPartner returns a partner's introductions, newest first.
func (s *Store) ListByPartner(ctx context.Context, partnerID primitive.ObjectID) ([]models.Introduction, error) {
	return s.list(ctx, bson.M{"partner_id": partnerID})
}

// List returns all introductions, newest first.
func (s *Store) List(ctx context.Context) ([]models.Introduction, error) {
	return s.list(ctx, bson.M{})
}

func (s *Store) list(ctx context.Context, q bson.M) ([]models.Introduction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.Introduction
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
