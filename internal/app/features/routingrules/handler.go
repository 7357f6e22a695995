// internal/app/features/routingrules/handler.go
package routingrules

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/store/audit"
	partnerstore "github.com/kdmlabs/kdmhub/internal/app/store/partners"
	rulestore "github.com/kdmlabs/kdmhub/internal/app/store/routingrules"
	"github.com/kdmlabs/kdmhub/internal/app/system/auditlog"
	"github.com/kdmlabs/kdmhub/internal/app/system/authz"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/inputval"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// Handler serves the admin routing-rule CRUD API.
type Handler struct {
	Rules    *rulestore.Store
	Partners *partnerstore.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

// NewHandler constructs a routing-rules feature handler.
func NewHandler(rules *rulestore.Store, partners *partnerstore.Store, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Rules:    rules,
		Partners: partners,
		Audit:    auditLog,
		Log:      logger,
	}
}

type ruleRequest struct {
	Industries   []string `json:"industries"`
	ServiceTypes []string `json:"service_types"`
	PartnerID    string   `json:"partner_id" validate:"required"`
	MaxCapacity  int      `json:"max_capacity" validate:"gte=0"`
	IsActive     bool     `json:"is_active"`
}

// resolve validates the request and loads the referenced partner.
func (h *Handler) resolve(ctx context.Context, w http.ResponseWriter, req ruleRequest) (primitive.ObjectID, bool) {
	if fields := inputval.Struct(req); fields != nil {
		httpjson.Write(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": fields,
		})
		return primitive.NilObjectID, false
	}
	pid, err := primitive.ObjectIDFromHex(req.PartnerID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid partner_id")
		return primitive.NilObjectID, false
	}
	if _, err := h.Partners.GetByID(ctx, pid); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusBadRequest, "partner does not exist")
			return primitive.NilObjectID, false
		}
		h.Log.Error("load partner for rule", zap.Error(err))
		httpjson.Internal(w)
		return primitive.NilObjectID, false
	}
	return pid, true
}

// ServeList handles GET /api/routing-rules.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rules, err := h.Rules.List(ctx)
	if err != nil {
		h.Log.Error("list routing rules", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if rules == nil {
		rules = []models.RoutingRule{}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"rules": rules})
}

// ServeGet handles GET /api/routing-rules/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid rule id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rule, err := h.Rules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "rule not found")
			return
		}
		h.Log.Error("get routing rule", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, rule)
}

// ServeCreate handles POST /api/routing-rules.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	role, _, actorID, _ := authz.UserCtx(r)

	var req ruleRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pid, ok := h.resolve(ctx, w, req)
	if !ok {
		return
	}

	rule, err := h.Rules.Create(ctx, models.RoutingRule{
		Industries:   req.Industries,
		ServiceTypes: req.ServiceTypes,
		PartnerID:    pid,
		MaxCapacity:  req.MaxCapacity,
		IsActive:     req.IsActive,
	})
	if err != nil {
		h.Log.Error("create routing rule", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	h.Audit.RuleChanged(ctx, r, audit.EventRuleCreated, actorID, rule.ID, role)

	httpjson.Write(w, http.StatusCreated, rule)
}

// ServeUpdate handles PUT /api/routing-rules/{id}.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	role, _, actorID, _ := authz.UserCtx(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid rule id")
		return
	}

	var req ruleRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Rules.GetByID(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "rule not found")
			return
		}
		h.Log.Error("get routing rule", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	pid, ok := h.resolve(ctx, w, req)
	if !ok {
		return
	}

	err = h.Rules.Update(ctx, id, models.RoutingRule{
		Industries:   req.Industries,
		ServiceTypes: req.ServiceTypes,
		PartnerID:    pid,
		MaxCapacity:  req.MaxCapacity,
		IsActive:     req.IsActive,
	})
	if err != nil {
		h.Log.Error("update routing rule", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	h.Audit.RuleChanged(ctx, r, audit.EventRuleUpdated, actorID, id, role)

	rule, err := h.Rules.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("reload routing rule", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, rule)
}

// ServeDelete handles DELETE /api/routing-rules/{id}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	role, _, actorID, _ := authz.UserCtx(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid rule id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	deleted, err := h.Rules.Delete(ctx, id)
	if err != nil {
		h.Log.Error("delete routing rule", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if deleted == 0 {
		httpjson.Error(w, http.StatusNotFound, "rule not found")
		return
	}
	h.Audit.RuleChanged(ctx, r, audit.EventRuleDeleted, actorID, id, role)

	w.WriteHeader(http.StatusNoContent)
}
