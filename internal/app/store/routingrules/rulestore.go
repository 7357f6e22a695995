// internal/app/store/routingrules/rulestore.go
package rulestore

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

var errBadCapacity = errors.New("max_capacity must be zero or positive")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("routing_rules")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "is_active", Value: 1}}},
		{Keys: bson.D{{Key: "partner_id", Value: 1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *Store) Create(ctx context.Context, rule models.RoutingRule) (models.RoutingRule, error) {
	if rule.MaxCapacity < 0 {
		return models.RoutingRule{}, errBadCapacity
	}
	now := time.Now().UTC()
	rule.ID = primitive.NewObjectID()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, rule); err != nil {
		return models.RoutingRule{}, err
	}
	return rule, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.RoutingRule, error) {
	var rule models.RoutingRule
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&rule); err != nil {
		return models.RoutingRule{}, err
	}
	return rule, nil
}

// Update replaces the rule's criteria fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, rule models.RoutingRule) error {
	if rule.MaxCapacity < 0 {
		return errBadCapacity
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"industries":    rule.Industries,
		"service_types": rule.ServiceTypes,
		"partner_id":    rule.PartnerID,
		"max_capacity":  rule.MaxCapacity,
		"is_active":     rule.IsActive,
		"updated_at":    time.Now().UTC(),
	}})
	return err
}

// Delete removes a rule. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListActive returns active rules sorted by _id ascending. The routing
// procedure relies on this order for deterministic tie-breaking.
func (s *Store) ListActive(ctx context.Context) ([]models.RoutingRule, error) {
	return s.list(ctx, bson.M{"is_active": true})
}

// List returns all rules sorted by _id ascending.
func (s *Store) List(ctx context.Context) ([]models.RoutingRule, error) {
	return s.list(ctx, bson.M{})
}

func (s *Store) list(ctx context.Context, q bson.M) ([]models.RoutingRule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rules []models.RoutingRule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}
