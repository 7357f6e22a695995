// internal/domain/models/cohort.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cohort lifecycle states.
const (
	CohortDraft     = "draft"
	CohortScheduled = "scheduled"
	CohortEnrolling = "enrolling"
	CohortActive    = "active"
	CohortCompleted = "completed"
	CohortArchived  = "archived"
	CohortCancelled = "cancelled"
)

// ValidCohortStatus reports whether s is a known cohort lifecycle state.
func ValidCohortStatus(s string) bool {
	switch s {
	case CohortDraft, CohortScheduled, CohortEnrolling, CohortActive,
		CohortCompleted, CohortArchived, CohortCancelled:
		return true
	}
	return false
}

// Cohort is a scheduled, capacity-bounded group-training program run.
//
// CurrentParticipants greater than MaxParticipants is a tolerated
// "overbooked" condition that capacity checks report rather than correct.
type Cohort struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"-"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Status      string             `bson:"status" json:"status"`

	MaxParticipants     int `bson:"max_participants" json:"max_participants"`
	CurrentParticipants int `bson:"current_participants" json:"current_participants"`

	InstructorID *primitive.ObjectID `bson:"instructor_id,omitempty" json:"instructor_id,omitempty"`

	StartDate           time.Time  `bson:"start_date" json:"start_date"`
	EndDate             time.Time  `bson:"end_date" json:"end_date"`
	EnrollmentOpenedAt  *time.Time `bson:"enrollment_opened_at,omitempty" json:"enrollment_opened_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// CohortTransition is an append-only audit record, one per state change.
type CohortTransition struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CohortID    primitive.ObjectID `bson:"cohort_id" json:"cohort_id"`
	FromState   string             `bson:"from_state" json:"from_state"`
	ToState     string             `bson:"to_state" json:"to_state"`
	TriggeredBy string             `bson:"triggered_by" json:"triggered_by"`
	TriggeredAt time.Time          `bson:"triggered_at" json:"triggered_at"`
	Reason      string             `bson:"reason,omitempty" json:"reason,omitempty"`
}

// Cohort membership statuses.
const (
	MemberActive    = "active"
	MemberCompleted = "completed"
	MemberDropped   = "dropped"
)

// CohortMember links a user to a cohort they hold a seat in.
type CohortMember struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CohortID   primitive.ObjectID `bson:"cohort_id" json:"cohort_id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	Status     string             `bson:"status" json:"status"`
	EnrolledAt time.Time          `bson:"enrolled_at" json:"enrolled_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
