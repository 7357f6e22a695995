// internal/app/features/events/handler.go
package events

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	eventstore "github.com/kdmlabs/kdmhub/internal/app/store/events"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/inputval"
	"github.com/kdmlabs/kdmhub/internal/app/system/paging"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// Handler serves marketing events: a public published list and the
// admin CRUD behind it.
type Handler struct {
	Events *eventstore.Store
	Log    *zap.Logger
}

func NewHandler(events *eventstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Events: events, Log: logger}
}

func eventID(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
}

type eventRequest struct {
	Title     string    `json:"title" validate:"required,min=2,max=200"`
	BodyHTML  string    `json:"body_html" validate:"max=50000"`
	StartsAt  time.Time `json:"starts_at" validate:"required"`
	Location  string    `json:"location" validate:"max=300"`
	Published bool      `json:"published"`
}

// ServePublicList handles GET /api/events. Published events only, no
// authentication.
func (h *Handler) ServePublicList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

// ServeAdminList handles GET /api/admin/events, drafts included.
func (h *Handler) ServeAdminList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, publishedOnly bool) {
	limit := paging.ParseLimit(r)
	offset := paging.ParseOffset(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Events.List(ctx, publishedOnly, int64(limit), offset)
	if err != nil {
		h.Log.Error("list events", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if rows == nil {
		rows = []models.Event{}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"events": rows,
		"limit":  limit,
		"offset": offset,
	})
}

// ServeGet handles GET /api/admin/events/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid event id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	event, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "event not found")
			return
		}
		h.Log.Error("get event", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, event)
}

// ServeCreate handles POST /api/admin/events.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
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

	event, err := h.Events.Create(ctx, models.Event{
		Title:     req.Title,
		BodyHTML:  req.BodyHTML,
		StartsAt:  req.StartsAt,
		Location:  req.Location,
		Published: req.Published,
	})
	if err != nil {
		h.Log.Error("create event", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusCreated, event)
}

// ServeUpdate handles PUT /api/admin/events/{id}.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid event id")
		return
	}

	var req eventRequest
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

	if _, err := h.Events.GetByID(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "event not found")
			return
		}
		h.Log.Error("get event", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	err = h.Events.Update(ctx, id, models.Event{
		Title:     req.Title,
		BodyHTML:  req.BodyHTML,
		StartsAt:  req.StartsAt,
		Location:  req.Location,
		Published: req.Published,
	})
	if err != nil {
		h.Log.Error("update event", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	event, err := h.Events.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("reload event", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, event)
}

// ServeDelete handles DELETE /api/admin/events/{id}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid event id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	deleted, err := h.Events.Delete(ctx, id)
	if err != nil {
		h.Log.Error("delete event", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if deleted == 0 {
		httpjson.Error(w, http.StatusNotFound, "event not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
