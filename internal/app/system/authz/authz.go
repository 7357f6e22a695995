// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kdmlabs/kdmhub/internal/app/system/auth"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID,
// and a found flag. If no user is present or the user ID is malformed it
// returns "visitor", "", NilObjectID, false, so ok=true always means a
// valid, authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "admin"
}

// IsPartner reports whether the current request's user is a partner user.
func IsPartner(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "partner"
}

// IsInstructor reports whether the current request's user is an instructor.
func IsInstructor(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "instructor"
}

// UserPartnerID returns the partner the current user acts for.
// Returns NilObjectID for non-partner users or malformed IDs.
func UserPartnerID(r *http.Request) primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok || user.PartnerID == "" {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(user.PartnerID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// CanSeeLead reports whether the current user may read the given lead.
// Admins see everything; partners see only leads assigned to their
// partner; other roles see nothing through the leads API.
func CanSeeLead(r *http.Request, leadPartnerID *primitive.ObjectID) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	if role == "admin" {
		return true
	}
	if role == "partner" {
		pid := UserPartnerID(r)
		return leadPartnerID != nil && !pid.IsZero() && *leadPartnerID == pid
	}
	return false
}
