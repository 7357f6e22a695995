// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kdmlabs/kdmhub/internal/app/system/htmlsanitize"
	"github.com/kdmlabs/kdmhub/internal/app/system/normalize"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "published", Value: 1}, {Key: "starts_at", Value: 1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts an event. BodyHTML is sanitized here so no unsafe
// markup ever reaches the collection.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	now := time.Now().UTC()
	e.ID = primitive.NewObjectID()
	e.Title = normalize.Name(e.Title)
	e.TitleCI = text.Fold(e.Title)
	e.BodyHTML = htmlsanitize.Sanitize(e.BodyHTML)
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, e models.Event) error {
	set := bson.M{
		"body_html":  htmlsanitize.Sanitize(e.BodyHTML),
		"location":   e.Location,
		"published":  e.Published,
		"updated_at": time.Now().UTC(),
	}
	if normalize.Name(e.Title) != "" {
		set["title"] = normalize.Name(e.Title)
		set["title_ci"] = text.Fold(normalize.Name(e.Title))
	}
	if !e.StartsAt.IsZero() {
		set["starts_at"] = e.StartsAt
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

// List returns events by start time. publishedOnly restricts to the
// public marketing view.
func (s *Store) List(ctx context.Context, publishedOnly bool, limit, offset int64) ([]models.Event, error) {
	q := bson.M{}
	if publishedOnly {
		q["published"] = true
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "starts_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.Event
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
