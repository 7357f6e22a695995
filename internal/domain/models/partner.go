// internal/domain/models/partner.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Partner is a consulting/delivery partner that leads are routed to.
type Partner struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"-"`
	ContactEmail string             `bson:"contact_email" json:"contact_email"`
	Status       string             `bson:"status,omitempty" json:"status,omitempty"` // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Introduction records a brokered introduction between an SME and a
// partner, usually spun out of a routed lead.
type Introduction struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	LeadID    *primitive.ObjectID `bson:"lead_id,omitempty" json:"lead_id,omitempty"`
	PartnerID primitive.ObjectID  `bson:"partner_id" json:"partner_id"`
	SMEUserID primitive.ObjectID  `bson:"sme_user_id" json:"sme_user_id"`
	Status    string              `bson:"status" json:"status"` // proposed | accepted | declined
	Notes     string              `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Introduction statuses.
const (
	IntroProposed = "proposed"
	IntroAccepted = "accepted"
	IntroDeclined = "declined"
)
