// internal/app/features/introductions/handler.go
package introductions

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	introstore "github.com/kdmlabs/kdmhub/internal/app/store/introductions"
	partnerstore "github.com/kdmlabs/kdmhub/internal/app/store/partners"
	userstore "github.com/kdmlabs/kdmhub/internal/app/store/users"
	"github.com/kdmlabs/kdmhub/internal/app/system/authz"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/inputval"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// Handler serves SME-to-partner introductions. Admins propose them;
// the partner side resolves them.
type Handler struct {
	Intros   *introstore.Store
	Partners *partnerstore.Store
	Users    *userstore.Store
	Log      *zap.Logger
}

func NewHandler(intros *introstore.Store, partners *partnerstore.Store, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Intros:   intros,
		Partners: partners,
		Users:    users,
		Log:      logger,
	}
}

type introRequest struct {
	PartnerID string `json:"partner_id" validate:"required"`
	SMEUserID string `json:"sme_user_id" validate:"required"`
	LeadID    string `json:"lead_id,omitempty"`
	Notes     string `json:"notes" validate:"max=2000"`
}

// ServeCreate handles POST /api/introductions. Admin only.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req introRequest
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

	partnerID, err := primitive.ObjectIDFromHex(req.PartnerID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid partner_id")
		return
	}
	smeID, err := primitive.ObjectIDFromHex(req.SMEUserID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid sme_user_id")
		return
	}
	var leadID *primitive.ObjectID
	if req.LeadID != "" {
		oid, err := primitive.ObjectIDFromHex(req.LeadID)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid lead_id")
			return
		}
		leadID = &oid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Partners.GetByID(ctx, partnerID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusBadRequest, "partner does not exist")
			return
		}
		h.Log.Error("load partner for introduction", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	sme, err := h.Users.GetByID(ctx, smeID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusBadRequest, "sme user does not exist")
			return
		}
		h.Log.Error("load sme for introduction", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if sme.Role != models.RoleSME {
		httpjson.Error(w, http.StatusBadRequest, "sme_user_id must reference an sme user")
		return
	}

	intro, err := h.Intros.Create(ctx, models.Introduction{
		LeadID:    leadID,
		PartnerID: partnerID,
		SMEUserID: smeID,
		Notes:     req.Notes,
	})
	if err != nil {
		h.Log.Error("create introduction", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusCreated, intro)
}

// ServeList handles GET /api/introductions. Admins see everything;
// partner users see their partner's.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		rows []models.Introduction
		err  error
	)
	switch role {
	case "admin":
		rows, err = h.Intros.List(ctx)
	case "partner":
		pid := authz.UserPartnerID(r)
		if pid.IsZero() {
			httpjson.Error(w, http.StatusForbidden, "no partner associated with this account")
			return
		}
		rows, err = h.Intros.ListByPartner(ctx, pid)
	default:
		httpjson.Error(w, http.StatusForbidden, "insufficient role")
		return
	}
	if err != nil {
		h.Log.Error("list introductions", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if rows == nil {
		rows = []models.Introduction{}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"introductions": rows})
}

type resolveRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// ServeAccept handles POST /api/introductions/{id}/accept.
func (h *Handler) ServeAccept(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, models.IntroAccepted)
}

// ServeDecline handles POST /api/introductions/{id}/decline.
func (h *Handler) ServeDecline(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, models.IntroDeclined)
}

// resolve moves a proposed introduction to accepted or declined. Only
// the partner it was proposed to, or an admin, may resolve it; anything
// already resolved conflicts.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, status string) {
	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid introduction id")
		return
	}

	var req resolveRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	intro, err := h.Intros.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "introduction not found")
			return
		}
		h.Log.Error("get introduction", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if role != "admin" && authz.UserPartnerID(r) != intro.PartnerID {
		httpjson.Error(w, http.StatusForbidden, "introduction belongs to another partner")
		return
	}

	if err := h.Intros.SetStatus(ctx, id, status, req.Notes); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusConflict, "introduction is already resolved")
			return
		}
		h.Log.Error("resolve introduction", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	intro, err = h.Intros.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("reload introduction", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, intro)
}
