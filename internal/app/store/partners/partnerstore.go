// internal/app/store/partners/partnerstore.go
package partnerstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
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

var ErrDuplicateName = errors.New("a partner with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("partners")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *Store) Create(ctx context.Context, p models.Partner) (models.Partner, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.Name = normalize.Name(p.Name)
	p.NameCI = text.Fold(p.Name)
	p.ContactEmail = normalize.Email(p.ContactEmail)
	if p.Status == "" {
		p.Status = "active"
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Partner{}, ErrDuplicateName
		}
		return models.Partner{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Partner, error) {
	var p models.Partner
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.Partner{}, err
	}
	return p, nil
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, contactEmail, status string) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if normalize.Name(name) != "" {
		set["name"] = normalize.Name(name)
		set["name_ci"] = text.Fold(normalize.Name(name))
	}
	if contactEmail != "" {
		set["contact_email"] = normalize.Email(contactEmail)
	}
	if status != "" {
		set["status"] = normalize.Status(status)
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrDuplicateName
	}
	return err
}

// List returns partners sorted by folded name.
func (s *Store) List(ctx context.Context) ([]models.Partner, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cursor, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.Partner
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
