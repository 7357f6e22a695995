// internal/app/store/promocodes/promostore.go
package promostore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateCode = errors.New("a promo code with this code already exists")
	errBadPercent    = errors.New("percent_off must be between 1 and 100")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("promo_codes")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a promo code. An empty Code gets a generated one from
// the first UUID block, uppercased.
func (s *Store) Create(ctx context.Context, p models.PromoCode) (models.PromoCode, error) {
	if p.PercentOff < 1 || p.PercentOff > 100 {
		return models.PromoCode{}, errBadPercent
	}
	p.ID = primitive.NewObjectID()
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	if p.Code == "" {
		p.Code = strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
	}
	p.Active = true
	p.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.PromoCode{}, ErrDuplicateCode
		}
		return models.PromoCode{}, err
	}
	return p, nil
}

// GetByCode looks up an active, unexpired code.
func (s *Store) GetByCode(ctx context.Context, code string) (models.PromoCode, error) {
	var p models.PromoCode
	err := s.c.FindOne(ctx, bson.M{
		"code":   strings.ToUpper(strings.TrimSpace(code)),
		"active": true,
		"$or": bson.A{
			bson.M{"expires_at": bson.M{"$exists": false}},
			bson.M{"expires_at": bson.M{"$gt": time.Now().UTC()}},
		},
	}).Decode(&p)
	if err != nil {
		return models.PromoCode{}, err
	}
	return p, nil
}

// Deactivate turns a code off. Codes are never deleted so redemption
// history keeps resolving.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"active": false}})
	return err
}

func (s *Store) List(ctx context.Context) ([]models.PromoCode, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.PromoCode
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
