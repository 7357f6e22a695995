// internal/app/features/authapi/handler.go
package authapi

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	userstore "github.com/kdmlabs/kdmhub/internal/app/store/users"
	"github.com/kdmlabs/kdmhub/internal/app/system/auditlog"
	"github.com/kdmlabs/kdmhub/internal/app/system/auth"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/inputval"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// Handler serves password login, logout, and the current-user probe.
// A successful login establishes the session cookie and also returns a
// bearer token for API clients.
type Handler struct {
	Users *userstore.Store
	Audit *auditlog.Logger
	Log   *zap.Logger
}

func NewHandler(users *userstore.Store, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Audit: auditLog, Log: logger}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ServeLogin handles POST /api/auth/login. Failed lookups and wrong
// passwords get the same 401 body.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if fields := inputval.Struct(req); fields != nil {
		httpjson.Write(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": fields,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.Audit.LoginFailedUserNotFound(ctx, r, req.Email)
			httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.Log.Error("load user for login", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if !userstore.CheckPassword(user, req.Password) {
		h.Audit.LoginFailedWrongPassword(ctx, r, user.ID, user.Email)
		httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if user.Status == models.UserDisabled {
		h.Audit.LoginFailedUserDisabled(ctx, r, user.ID, user.Email)
		httpjson.Error(w, http.StatusForbidden, "account is disabled")
		return
	}

	su := &auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.FullName,
		Email: user.Email,
		Role:  user.Role,
	}
	if user.PartnerID != nil {
		su.PartnerID = user.PartnerID.Hex()
	}

	if err := auth.SignIn(w, r, su); err != nil {
		h.Log.Error("establish session", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	token, err := auth.IssueToken(su)
	if err != nil {
		h.Log.Error("issue token", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	h.Audit.LoginSuccess(ctx, r, user.ID, "password", user.Email)

	httpjson.Write(w, http.StatusOK, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":         su.ID,
			"name":       su.Name,
			"email":      su.Email,
			"role":       su.Role,
			"partner_id": su.PartnerID,
		},
	})
}

// ServeLogout handles POST /api/auth/logout.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if u, ok := auth.CurrentUser(r); ok {
		h.Audit.Logout(ctx, r, u.ID)
	}
	if err := auth.SignOut(w, r); err != nil {
		h.Log.Error("clear session", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeMe handles GET /api/auth/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"role":       u.Role,
		"partner_id": u.PartnerID,
	})
}
