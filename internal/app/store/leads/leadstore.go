// internal/app/store/leads/leadstore.go
package leadstore

import (
	"context"
	"errors"
	"strings"
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

var (
	ErrDuplicateEmail = errors.New("a lead with this email already exists")
	errBadStatus      = errors.New(`status must be "new"|"contacted"|"qualified"|"converted"`)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("leads")}
}

// EnsureIndexes creates the unique email index and list indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "partner_id", Value: 1}, {Key: "status", Value: 1}}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new captured lead. The routing procedure assigns a
// partner afterwards; a fresh lead is always unassigned and "new".
func (s *Store) Create(ctx context.Context, lead models.Lead) (models.Lead, error) {
	now := time.Now().UTC()
	lead.ID = primitive.NewObjectID()
	lead.Name = normalize.Name(lead.Name)
	lead.Email = normalize.Email(lead.Email)
	lead.EmailCI = text.Fold(lead.Email)
	lead.Status = models.LeadStatusNew
	lead.PartnerID = nil
	lead.AssignedAt = nil
	if lead.CapturedAt.IsZero() {
		lead.CapturedAt = now
	}
	lead.CreatedAt = now
	lead.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, lead); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Lead{}, ErrDuplicateEmail
		}
		return models.Lead{}, err
	}
	return lead, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Lead, error) {
	var lead models.Lead
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&lead); err != nil {
		return models.Lead{}, err
	}
	return lead, nil
}

// Assign records the routing outcome on a lead. A nil partnerID clears
// the assignment (lead returns to the default queue).
func (s *Store) Assign(ctx context.Context, id primitive.ObjectID, partnerID *primitive.ObjectID, score int, reason string) error {
	set := bson.M{
		"routing_score":  score,
		"routing_reason": reason,
		"updated_at":     time.Now().UTC(),
	}
	unset := bson.M{}
	if partnerID != nil {
		set["partner_id"] = partnerID
		set["assigned_at"] = time.Now().UTC()
	} else {
		unset["partner_id"] = ""
		unset["assigned_at"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	_, err := s.c.UpdateByID(ctx, id, update)
	return err
}

// Update holds the mutable lead fields a partner or admin may change.
type Update struct {
	Status        string
	Notes         *string
	FollowUpDate  *time.Time
	ClearFollowUp bool
}

// ApplyUpdate mutates status, notes, and follow-up date. Empty Status
// leaves the status untouched.
func (s *Store) ApplyUpdate(ctx context.Context, id primitive.ObjectID, u Update) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}

	if u.Status != "" {
		if !models.ValidLeadStatus(u.Status) {
			return errBadStatus
		}
		set["status"] = u.Status
	}
	if u.Notes != nil {
		set["notes"] = strings.TrimSpace(*u.Notes)
	}
	if u.FollowUpDate != nil {
		set["follow_up_date"] = u.FollowUpDate
	} else if u.ClearFollowUp {
		unset["follow_up_date"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	_, err := s.c.UpdateByID(ctx, id, update)
	return err
}

// Filter selects leads for List and counting.
type Filter struct {
	Status      string
	Industry    string
	ServiceType string
	PartnerID   *primitive.ObjectID
	// Unassigned selects only leads without a partner (default queue).
	Unassigned bool
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Industry != "" {
		q["industry"] = f.Industry
	}
	if f.ServiceType != "" {
		q["service_type"] = f.ServiceType
	}
	if f.PartnerID != nil {
		q["partner_id"] = f.PartnerID
	} else if f.Unassigned {
		q["partner_id"] = bson.M{"$exists": false}
	}
	return q
}

// List returns leads matching the filter, newest first.
func (s *Store) List(ctx context.Context, f Filter, limit, offset int64) ([]models.Lead, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := s.c.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var leads []models.Lead
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

// Count returns the number of leads matching the filter.
func (s *Store) Count(ctx context.Context, f Filter) (int64, error) {
	return s.c.CountDocuments(ctx, f.query())
}

// CountOpenByPartner returns the partner's current load: assigned leads
// still in the new or contacted stage. The routing score uses this
// against rule capacity.
func (s *Store) CountOpenByPartner(ctx context.Context, partnerID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"partner_id": partnerID,
		"status":     bson.M{"$in": bson.A{models.LeadStatusNew, models.LeadStatusContacted}},
	})
}

// CountCapturedSince returns leads captured at or after the cutoff.
// Used by the weekly digest.
func (s *Store) CountCapturedSince(ctx context.Context, since time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"captured_at": bson.M{"$gte": since}})
}

// CountAssignedSince returns leads assigned at or after the cutoff.
func (s *Store) CountAssignedSince(ctx context.Context, since time.Time) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"assigned_at": bson.M{"$gte": since}})
}
