// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	notifystore "github.com/kdmlabs/kdmhub/internal/app/store/notifications"
	"github.com/kdmlabs/kdmhub/internal/app/system/authz"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/paging"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// Handler serves a user's own in-app notifications. Every endpoint is
// scoped to the signed-in user; there is no cross-user access, admin
// included.
type Handler struct {
	Notifications *notifystore.Store
	Log           *zap.Logger
}

func NewHandler(notifications *notifystore.Store, logger *zap.Logger) *Handler {
	return &Handler{Notifications: notifications, Log: logger}
}

// ServeList handles GET /api/notifications with an optional
// unread_only filter.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	unreadOnly := query.Get(r, "unread_only") == "true"
	limit := paging.ParseLimit(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Notifications.ListByUser(ctx, userID, unreadOnly, int64(limit))
	if err != nil {
		h.Log.Error("list notifications", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if rows == nil {
		rows = []models.Notification{}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"notifications": rows,
	})
}

// ServeMarkRead handles POST /api/notifications/{id}/read.
func (h *Handler) ServeMarkRead(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "notification not found")
			return
		}
		h.Log.Error("mark notification read", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeCount handles GET /api/notifications/count.
func (h *Handler) ServeCount(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	unread, err := h.Notifications.CountUnread(ctx, userID)
	if err != nil {
		h.Log.Error("count unread notifications", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"unread": unread})
}
