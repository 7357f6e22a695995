// internal/app/features/partners/handler.go
package partners

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	leadstore "github.com/kdmlabs/kdmhub/internal/app/store/leads"
	partnerstore "github.com/kdmlabs/kdmhub/internal/app/store/partners"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/inputval"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// Handler serves the admin partner API. Partners are never deleted;
// deactivating one takes it out of routing while its history stays.
type Handler struct {
	DB       *mongo.Database
	Partners *partnerstore.Store
	Leads    *leadstore.Store
	Log      *zap.Logger
}

// NewHandler constructs a partners feature handler.
func NewHandler(db *mongo.Database, partners *partnerstore.Store, leads *leadstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Partners: partners,
		Leads:    leads,
		Log:      logger,
	}
}

func partnerID(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
}

type partnerRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=200"`
	ContactEmail string `json:"contact_email" validate:"required"`
	Status       string `json:"status"`
}

// ServeCreate handles POST /api/partners.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req partnerRequest
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
	if !inputval.IsValidEmail(req.ContactEmail) {
		httpjson.Error(w, http.StatusBadRequest, "invalid contact_email")
		return
	}
	if req.Status != "" && req.Status != "active" && req.Status != "inactive" {
		httpjson.Error(w, http.StatusBadRequest, "status must be active or inactive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	partner, err := h.Partners.Create(ctx, models.Partner{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		Status:       req.Status,
	})
	if err != nil {
		if errors.Is(err, partnerstore.ErrDuplicateName) {
			httpjson.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.Log.Error("create partner", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusCreated, partner)
}

// ServeGet handles GET /api/partners/{id}. The response includes the
// partner's open-lead count, the figure routing scores against.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := partnerID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid partner id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	partner, err := h.Partners.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "partner not found")
			return
		}
		h.Log.Error("get partner", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	openLeads, err := h.Leads.CountOpenByPartner(ctx, id)
	if err != nil {
		h.Log.Error("count open leads", zap.Error(err), zap.String("partner_id", id.Hex()))
		httpjson.Internal(w)
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]any{
		"partner":    partner,
		"open_leads": openLeads,
	})
}

// ServeUpdate handles PUT /api/partners/{id}.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := partnerID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid partner id")
		return
	}

	var req partnerRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ContactEmail != "" && !inputval.IsValidEmail(req.ContactEmail) {
		httpjson.Error(w, http.StatusBadRequest, "invalid contact_email")
		return
	}
	if req.Status != "" && req.Status != "active" && req.Status != "inactive" {
		httpjson.Error(w, http.StatusBadRequest, "status must be active or inactive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Partners.GetByID(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "partner not found")
			return
		}
		h.Log.Error("get partner", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	if err := h.Partners.Update(ctx, id, req.Name, req.ContactEmail, req.Status); err != nil {
		if errors.Is(err, partnerstore.ErrDuplicateName) {
			httpjson.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.Log.Error("update partner", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	partner, err := h.Partners.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("reload partner", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, partner)
}
