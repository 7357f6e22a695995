// internal/domain/models/lead.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lead statuses.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusConverted = "converted"
)

// ValidLeadStatus reports whether s is a known lead status.
func ValidLeadStatus(s string) bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted:
		return true
	}
	return false
}

// Lead is a captured prospect. Leads are created by the public capture
// endpoint, mutated by the routing procedure (partner assignment) and by
// partner/admin status updates, and never hard-deleted.
type Lead struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	EmailCI     string             `bson:"email_ci" json:"-"` // lowercase, diacritics-stripped
	Company     string             `bson:"company,omitempty" json:"company,omitempty"`
	Industry    string             `bson:"industry,omitempty" json:"industry,omitempty"`
	ServiceType string             `bson:"service_type,omitempty" json:"service_type,omitempty"`
	Source      string             `bson:"source,omitempty" json:"source,omitempty"`
	Status      string             `bson:"status" json:"status"`

	// Routing assignment. Nil PartnerID means the lead sits in the
	// default queue (a UI label, not a separate collection).
	PartnerID     *primitive.ObjectID `bson:"partner_id,omitempty" json:"partner_id,omitempty"`
	AssignedAt    *time.Time          `bson:"assigned_at,omitempty" json:"assigned_at,omitempty"`
	RoutingScore  int                 `bson:"routing_score,omitempty" json:"routing_score,omitempty"`
	RoutingReason string              `bson:"routing_reason,omitempty" json:"routing_reason,omitempty"`

	Notes        string     `bson:"notes,omitempty" json:"notes,omitempty"`
	FollowUpDate *time.Time `bson:"follow_up_date,omitempty" json:"follow_up_date,omitempty"`

	CapturedAt time.Time `bson:"captured_at" json:"captured_at"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}
