// internal/domain/models/waitlist.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Waitlist entry statuses.
const (
	WaitlistWaiting  = "waiting"
	WaitlistNotified = "notified"
	WaitlistEnrolled = "enrolled"
	WaitlistExpired  = "expired"
)

// WaitlistEntry is one user's place in a cohort's ordered waitlist.
//
// Invariant: among entries with status "waiting" for a given cohort,
// positions form a contiguous 1..N sequence with no gaps. The reorder
// operation restores this after removals.
type WaitlistEntry struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CohortID primitive.ObjectID `bson:"cohort_id" json:"cohort_id"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	Position int                `bson:"position" json:"position"`
	Status   string             `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
