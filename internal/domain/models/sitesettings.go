// internal/domain/models/sitesettings.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultSiteName is used until settings are saved for the first time.
const DefaultSiteName = "KDMHub"

// SiteSettings is the single platform-settings document. The API reads
// it through an injected TTL cache with explicit invalidation on save.
type SiteSettings struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SiteName       string             `bson:"site_name" json:"site_name"`
	SupportEmail   string             `bson:"support_email,omitempty" json:"support_email,omitempty"`
	DigestAudience []string           `bson:"digest_audience,omitempty" json:"digest_audience,omitempty"` // admin emails for the weekly digest
	FooterHTML     string             `bson:"footer_html,omitempty" json:"footer_html,omitempty"`

	UpdatedAt     *time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	UpdatedByID   *primitive.ObjectID `bson:"updated_by_id,omitempty" json:"updated_by_id,omitempty"`
	UpdatedByName string              `bson:"updated_by_name,omitempty" json:"updated_by_name,omitempty"`
}
