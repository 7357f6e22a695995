// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Portal roles.
const (
	RoleAdmin      = "admin"
	RolePartner    = "partner"
	RoleSME        = "sme"
	RoleBuyer      = "buyer"
	RoleQA         = "qa"
	RoleInstructor = "instructor"
)

// ValidRole reports whether s is a known portal role.
func ValidRole(s string) bool {
	switch s {
	case RoleAdmin, RolePartner, RoleSME, RoleBuyer, RoleQA, RoleInstructor:
		return true
	}
	return false
}

// User statuses.
const (
	UserActive   = "active"
	UserDisabled = "disabled"
)

// User represents a portal account. Partner users carry the partner they
// act for; all other roles leave PartnerID nil.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName     string              `bson:"full_name" json:"full_name"`
	FullNameCI   string              `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string              `bson:"email" json:"email"`
	EmailCI      string              `bson:"email_ci" json:"-"`
	PasswordHash string              `bson:"password_hash,omitempty" json:"-"`
	AuthMethod   string              `bson:"auth_method,omitempty" json:"auth_method,omitempty"` // password | google
	Role         string              `bson:"role" json:"role"`
	Status       string              `bson:"status,omitempty" json:"status,omitempty"`
	PartnerID    *primitive.ObjectID `bson:"partner_id,omitempty" json:"partner_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
