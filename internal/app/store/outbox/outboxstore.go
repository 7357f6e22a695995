// internal/app/store/outbox/outboxstore.go
package outboxstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// MaxAttempts is how many delivery attempts a message gets before it is
// marked failed for good.
const MaxAttempts = 5

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("email_outbox")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Enqueue writes a pending message. Callers do this in the same logical
// operation as the state change that warrants the email; the dispatcher
// picks it up afterwards.
func (s *Store) Enqueue(ctx context.Context, m models.OutboxMessage) (models.OutboxMessage, error) {
	m.ID = primitive.NewObjectID()
	m.Status = models.OutboxPending
	m.Attempts = 0
	m.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.OutboxMessage{}, err
	}
	return m, nil
}

// ListPending returns the oldest pending messages up to limit.
func (s *Store) ListPending(ctx context.Context, limit int64) ([]models.OutboxMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)
	cursor, err := s.c.Find(ctx, bson.M{"status": models.OutboxPending}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.OutboxMessage
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkSent records a successful delivery.
func (s *Store) MarkSent(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"status": models.OutboxSent, "sent_at": now},
		"$inc": bson.M{"attempts": 1},
	})
	return err
}

// MarkFailedAttempt bumps the attempt counter and records the error.
// The message stays pending until it exhausts MaxAttempts, after which
// it is marked failed and left for operator inspection.
func (s *Store) MarkFailedAttempt(ctx context.Context, id primitive.ObjectID, deliveryErr string) error {
	var m models.OutboxMessage
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return err
	}

	status := models.OutboxPending
	if m.Attempts+1 >= MaxAttempts {
		status = models.OutboxFailed
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"status": status, "last_error": deliveryErr},
		"$inc": bson.M{"attempts": 1},
	})
	return err
}

// CountByStatus returns the number of messages in the given status.
func (s *Store) CountByStatus(ctx context.Context, status string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": status})
}
