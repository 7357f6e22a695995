// internal/app/store/settlements/settlementstore.go
package settlementstore

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

// ErrAlreadyFinalized is returned when finalizing a settlement that is
// not in the draft state.
var ErrAlreadyFinalized = errors.New("settlement is already finalized")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("settlements")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "period_start", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a computed draft settlement. The monetary fields are
// written once here and never updated.
func (s *Store) Create(ctx context.Context, st models.Settlement) (models.Settlement, error) {
	st.ID = primitive.NewObjectID()
	st.Status = models.SettlementDraft
	st.CreatedAt = time.Now().UTC()
	st.FinalizedAt = nil
	if _, err := s.c.InsertOne(ctx, st); err != nil {
		return models.Settlement{}, err
	}
	return st, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Settlement, error) {
	var st models.Settlement
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&st); err != nil {
		return models.Settlement{}, err
	}
	return st, nil
}

// Finalize moves a draft settlement to its immutable final state.
func (s *Store) Finalize(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.SettlementDraft},
		bson.M{"$set": bson.M{
			"status":       models.SettlementFinalized,
			"finalized_at": now,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Either missing or already finalized; disambiguate for the caller.
		count, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if count == 0 {
			return mongo.ErrNoDocuments
		}
		return ErrAlreadyFinalized
	}
	return nil
}

// UpdateNotes changes the free-text notes. Allowed in any state; notes
// are not part of the computed figures.
func (s *Store) UpdateNotes(ctx context.Context, id primitive.ObjectID, notes string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"notes": notes}})
	return err
}

// List returns settlements newest period first.
func (s *Store) List(ctx context.Context, status string, limit, offset int64) ([]models.Settlement, error) {
	q := bson.M{}
	if status != "" {
		q["status"] = status
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "period_start", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.Settlement
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
