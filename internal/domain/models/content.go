// internal/domain/models/content.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is a marketing content record (webinar, industry day, etc.).
// BodyHTML is sanitized at the store boundary before persisting.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	TitleCI   string             `bson:"title_ci" json:"-"`
	BodyHTML  string             `bson:"body_html,omitempty" json:"body_html,omitempty"`
	StartsAt  time.Time          `bson:"starts_at" json:"starts_at"`
	Location  string             `bson:"location,omitempty" json:"location,omitempty"`
	Published bool               `bson:"published" json:"published"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Sponsor is a program sponsor shown on marketing surfaces.
type Sponsor struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name    string             `bson:"name" json:"name"`
	NameCI  string             `bson:"name_ci" json:"-"`
	Tier    string             `bson:"tier,omitempty" json:"tier,omitempty"`
	Website string             `bson:"website,omitempty" json:"website,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PromoCode is a discount code for program enrollment.
type PromoCode struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code       string             `bson:"code" json:"code"`
	PercentOff int                `bson:"percent_off" json:"percent_off"`
	Active     bool               `bson:"active" json:"active"`
	ExpiresAt  *time.Time         `bson:"expires_at,omitempty" json:"expires_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
