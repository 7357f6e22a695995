// internal/app/features/sponsors/handler.go
package sponsors

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	sponsorstore "github.com/kdmlabs/kdmhub/internal/app/store/sponsors"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/inputval"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// Handler serves the admin sponsor CRUD plus the public sponsor list.
type Handler struct {
	Sponsors *sponsorstore.Store
	Log      *zap.Logger
}

func NewHandler(sponsors *sponsorstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Sponsors: sponsors, Log: logger}
}

type sponsorRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=200"`
	Tier    string `json:"tier" validate:"max=50"`
	Website string `json:"website" validate:"max=300"`
}

// ServeList handles GET /api/sponsors.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Sponsors.List(ctx)
	if err != nil {
		h.Log.Error("list sponsors", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if rows == nil {
		rows = []models.Sponsor{}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"sponsors": rows})
}

// ServeCreate handles POST /api/admin/sponsors.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req sponsorRequest
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

	sponsor, err := h.Sponsors.Create(ctx, models.Sponsor{
		Name:    req.Name,
		Tier:    req.Tier,
		Website: req.Website,
	})
	if err != nil {
		h.Log.Error("create sponsor", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusCreated, sponsor)
}

// ServeUpdate handles PUT /api/admin/sponsors/{id}.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid sponsor id")
		return
	}

	var req sponsorRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Sponsors.GetByID(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "sponsor not found")
			return
		}
		h.Log.Error("get sponsor", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	if err := h.Sponsors.Update(ctx, id, req.Name, req.Tier, req.Website); err != nil {
		h.Log.Error("update sponsor", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	sponsor, err := h.Sponsors.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("reload sponsor", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, sponsor)
}

// ServeDelete handles DELETE /api/admin/sponsors/{id}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid sponsor id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	deleted, err := h.Sponsors.Delete(ctx, id)
	if err != nil {
		h.Log.Error("delete sponsor", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if deleted == 0 {
		httpjson.Error(w, http.StatusNotFound, "sponsor not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
