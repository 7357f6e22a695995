// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth       = "auth"
	CategoryAdmin      = "admin"
	CategoryLifecycle  = "lifecycle"
	CategorySettlement = "settlement"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedUserNotFound  = "login_failed_user_not_found"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedUserDisabled  = "login_failed_user_disabled"
	EventLogout                   = "logout"
)

// Admin / domain event types
const (
	EventLeadCaptured        = "lead_captured"
	EventLeadAssigned        = "lead_assigned"
	EventLeadUpdated         = "lead_updated"
	EventRuleCreated         = "routing_rule_created"
	EventRuleUpdated         = "routing_rule_updated"
	EventRuleDeleted         = "routing_rule_deleted"
	EventCohortCreated       = "cohort_created"
	EventCohortTransitioned  = "cohort_transitioned"
	EventCohortCancelled     = "cohort_cancelled"
	EventWaitlistJoined      = "waitlist_joined"
	EventWaitlistNotified    = "waitlist_notified"
	EventSeatReleased        = "seat_released"
	EventSettlementCreated   = "settlement_created"
	EventSettlementFinalized = "settlement_finalized"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who: the affected user and the actor who performed the action.
	UserID  *primitive.ObjectID `bson:"user_id,omitempty"`
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty"`

	// What: the primary entity the event concerns.
	EntityKind string              `bson:"entity_kind,omitempty"` // lead | cohort | settlement | rule | ...
	EntityID   *primitive.ObjectID `bson:"entity_id,omitempty"`

	IP        string `bson:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	UserID     *primitive.ObjectID
	EntityKind string
	EntityID   *primitive.ObjectID
	Category   string
	EventType  string
	StartTime  *time.Time
	EndTime    *time.Time
	Limit      int64
	Offset     int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{
			{Key: "entity_kind", Value: 1},
			{Key: "entity_id", Value: 1},
			{Key: "timestamp", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "category", Value: 1},
			{Key: "event_type", Value: 1},
			{Key: "timestamp", Value: -1},
		}},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

func (f QueryFilter) query() bson.M {
	query := bson.M{}
	if f.UserID != nil {
		query["user_id"] = f.UserID
	}
	if f.EntityKind != "" {
		query["entity_kind"] = f.EntityKind
	}
	if f.EntityID != nil {
		query["entity_id"] = f.EntityID
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.EventType != "" {
		query["event_type"] = f.EventType
	}
	if f.StartTime != nil || f.EndTime != nil {
		timeQuery := bson.M{}
		if f.StartTime != nil {
			timeQuery["$gte"] = *f.StartTime
		}
		if f.EndTime != nil {
			timeQuery["$lte"] = *f.EndTime
		}
		query["timestamp"] = timeQuery
	}
	return query
}

// Query retrieves audit events matching the given filter.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, filter.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, filter.query())
}

// GetByEntity retrieves recent audit events for one entity.
func (s *Store) GetByEntity(ctx context.Context, kind string, id primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{EntityKind: kind, EntityID: &id, Limit: limit})
}
