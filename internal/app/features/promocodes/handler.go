// internal/app/features/promocodes/handler.go
package promocodes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	promostore "github.com/kdmlabs/kdmhub/internal/app/store/promocodes"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/inputval"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// Handler serves the admin promo-code API plus a signed-in code check.
type Handler struct {
	Codes *promostore.Store
	Log   *zap.Logger
}

func NewHandler(codes *promostore.Store, logger *zap.Logger) *Handler {
	return &Handler{Codes: codes, Log: logger}
}

type codeRequest struct {
	Code       string     `json:"code" validate:"max=40"`
	PercentOff int        `json:"percent_off" validate:"required,gte=1,lte=100"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// ServeCreate handles POST /api/admin/promo-codes. An omitted code gets
// a generated one.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
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

	code, err := h.Codes.Create(ctx, models.PromoCode{
		Code:       req.Code,
		PercentOff: req.PercentOff,
		ExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, promostore.ErrDuplicateCode) {
			httpjson.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.Log.Error("create promo code", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusCreated, code)
}

// ServeList handles GET /api/admin/promo-codes.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Codes.List(ctx)
	if err != nil {
		h.Log.Error("list promo codes", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if rows == nil {
		rows = []models.PromoCode{}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"promo_codes": rows})
}

// ServeDeactivate handles POST /api/admin/promo-codes/{id}/deactivate.
// Codes are never deleted.
func (h *Handler) ServeDeactivate(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid promo code id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Codes.Deactivate(ctx, id); err != nil {
		h.Log.Error("deactivate promo code", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeCheck handles GET /api/promo-codes/check?code=X. It answers
// whether the code is live and what it is worth, for enrollment forms.
func (h *Handler) ServeCheck(w http.ResponseWriter, r *http.Request) {
	code := query.Get(r, "code")
	if code == "" {
		httpjson.Error(w, http.StatusBadRequest, "code is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	found, err := h.Codes.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Write(w, http.StatusOK, map[string]any{"valid": false})
			return
		}
		h.Log.Error("check promo code", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"valid":       true,
		"percent_off": found.PercentOff,
	})
}
