// internal/app/store/sponsors/sponsorstore.go
package sponsorstore

import (
	"context"
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
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sponsors")}
}

func (s *Store) Create(ctx context.Context, sp models.Sponsor) (models.Sponsor, error) {
	now := time.Now().UTC()
	sp.ID = primitive.NewObjectID()
	sp.Name = normalize.Name(sp.Name)
	sp.NameCI = text.Fold(sp.Name)
	sp.CreatedAt = now
	sp.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, sp); err != nil {
		return models.Sponsor{}, err
	}
	return sp, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Sponsor, error) {
	var sp models.Sponsor
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sp); err != nil {
		return models.Sponsor{}, err
	}
	return sp, nil
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, tier, website string) error {
	set := bson.M{
		"tier":       tier,
		"website":    website,
		"updated_at": time.Now().UTC(),
	}
	if normalize.Name(name) != "" {
		set["name"] = normalize.Name(name)
		set["name_ci"] = text.Fold(normalize.Name(name))
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) List(ctx context.Context) ([]models.Sponsor, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cursor, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.Sponsor
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
