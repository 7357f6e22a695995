// internal/domain/models/routingrule.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoutingRule is admin-configured criteria mapping lead attributes to a
// responsible partner. Rules are read-only from the routing procedure's
// perspective.
type RoutingRule struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Industries   []string           `bson:"industries" json:"industries"`
	ServiceTypes []string           `bson:"service_types" json:"service_types"`
	PartnerID    primitive.ObjectID `bson:"partner_id" json:"partner_id"`
	MaxCapacity  int                `bson:"max_capacity" json:"max_capacity"`
	IsActive     bool               `bson:"is_active" json:"is_active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MatchesIndustry reports whether the rule's industry set contains v.
func (r RoutingRule) MatchesIndustry(v string) bool {
	return containsFold(r.Industries, v)
}

// MatchesServiceType reports whether the rule's service-type set contains v.
func (r RoutingRule) MatchesServiceType(v string) bool {
	return containsFold(r.ServiceTypes, v)
}
