// internal/app/features/settlements/handler.go
package settlements

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/settlement"
	settlementstore "github.com/kdmlabs/kdmhub/internal/app/store/settlements"
	"github.com/kdmlabs/kdmhub/internal/app/system/auditlog"
	"github.com/kdmlabs/kdmhub/internal/app/system/authz"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/inputval"
	"github.com/kdmlabs/kdmhub/internal/app/system/paging"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// Handler serves the admin settlement API. Figures are computed once at
// creation and never edited; finalizing freezes the document.
type Handler struct {
	Settlements *settlementstore.Store
	// DefaultKDMShare is the platform-configured KDM percentage used
	// when a request does not name its own split.
	DefaultKDMShare int
	Audit           *auditlog.Logger
	Log             *zap.Logger
}

// NewHandler constructs a settlements feature handler.
func NewHandler(settlements *settlementstore.Store, defaultKDMShare int, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Settlements:     settlements,
		DefaultKDMShare: defaultKDMShare,
		Audit:           auditLog,
		Log:             logger,
	}
}

type createRequest struct {
	PeriodStart time.Time `json:"period_start" validate:"required"`
	PeriodEnd   time.Time `json:"period_end" validate:"required"`

	ProgramRevenues    []models.MoneyLine `json:"program_revenues"`
	DirectProgramCosts []models.MoneyLine `json:"direct_program_costs"`

	PlatformRunCostAllowance int64 `json:"platform_run_cost_allowance_cents" validate:"gte=0"`
	CostRecoveryPool         int64 `json:"cost_recovery_pool_cents" validate:"gte=0"`

	// Zero means "use the configured default split".
	KDMSharePercent int `json:"kdm_share_percent" validate:"gte=0,lte=100"`

	Notes string `json:"notes" validate:"max=2000"`
}

// ServeCreate handles POST /api/settlements. The split is computed
// server side from the submitted line items.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	role, _, actorID, _ := authz.UserCtx(r)

	var req createRequest
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

	kdmShare := req.KDMSharePercent
	if kdmShare == 0 {
		kdmShare = h.DefaultKDMShare
	}

	computed, err := settlement.Compute(settlement.Input{
		PeriodStart:              req.PeriodStart,
		PeriodEnd:                req.PeriodEnd,
		ProgramRevenues:          req.ProgramRevenues,
		DirectProgramCosts:       req.DirectProgramCosts,
		PlatformRunCostAllowance: req.PlatformRunCostAllowance,
		CostRecoveryPool:         req.CostRecoveryPool,
		KDMSharePercent:          kdmShare,
		VPlusSharePercent:        100 - kdmShare,
	})
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	computed.Notes = req.Notes

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Settlements.Create(ctx, computed)
	if err != nil {
		h.Log.Error("create settlement", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	period := fmt.Sprintf("%s..%s",
		created.PeriodStart.Format("2006-01-02"), created.PeriodEnd.Format("2006-01-02"))
	h.Audit.SettlementCreated(ctx, r, actorID, created.ID, role, period)

	httpjson.Write(w, http.StatusCreated, created)
}

// ServeList handles GET /api/settlements with an optional status filter.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	status := query.Get(r, "status")
	if status != "" && status != models.SettlementDraft && status != models.SettlementFinalized {
		httpjson.Error(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	limit := paging.ParseLimit(r)
	offset := paging.ParseOffset(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Settlements.List(ctx, status, int64(limit), offset)
	if err != nil {
		h.Log.Error("list settlements", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if rows == nil {
		rows = []models.Settlement{}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"settlements": rows,
		"limit":       limit,
		"offset":      offset,
	})
}

func settlementID(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
}

// ServeGet handles GET /api/settlements/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := settlementID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid settlement id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	st, err := h.Settlements.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "settlement not found")
			return
		}
		h.Log.Error("get settlement", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, st)
}

// ServeFinalize handles POST /api/settlements/{id}/finalize.
func (h *Handler) ServeFinalize(w http.ResponseWriter, r *http.Request) {
	role, _, actorID, _ := authz.UserCtx(r)

	id, err := settlementID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid settlement id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err = h.Settlements.Finalize(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, mongo.ErrNoDocuments):
		httpjson.Error(w, http.StatusNotFound, "settlement not found")
		return
	case errors.Is(err, settlementstore.ErrAlreadyFinalized):
		httpjson.Error(w, http.StatusConflict, err.Error())
		return
	default:
		h.Log.Error("finalize settlement", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	h.Audit.SettlementFinalized(ctx, r, actorID, id, role)

	st, err := h.Settlements.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("reload settlement", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, st)
}

type notesRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// ServeUpdateNotes handles PUT /api/settlements/{id}/notes. Notes stay
// editable after finalization; the figures never do.
func (h *Handler) ServeUpdateNotes(w http.ResponseWriter, r *http.Request) {
	id, err := settlementID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid settlement id")
		return
	}

	var req notesRequest
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

	if _, err := h.Settlements.GetByID(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "settlement not found")
			return
		}
		h.Log.Error("get settlement", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if err := h.Settlements.UpdateNotes(ctx, id, req.Notes); err != nil {
		h.Log.Error("update settlement notes", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
