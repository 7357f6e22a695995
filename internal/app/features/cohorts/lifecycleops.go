// internal/app/features/cohorts/lifecycleops.go
package cohorts

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/lifecycle"
	cohortstore "github.com/kdmlabs/kdmhub/internal/app/store/cohorts"
	"github.com/kdmlabs/kdmhub/internal/app/system/authz"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

type transitionRequest struct {
	To     string `json:"to"`
	Reason string `json:"reason"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// ServeTransition handles POST /api/cohorts/{id}/transition. Moves the
// cohort one step along the lifecycle; skips and moves out of terminal
// states are conflicts.
func (h *Handler) ServeTransition(w http.ResponseWriter, r *http.Request) {
	role, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := cohortID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid cohort id")
		return
	}

	var req transitionRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.To == "" {
		httpjson.Error(w, http.StatusBadRequest, "to is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err = h.Lifecycle.Transition(ctx, id, req.To, role, &actorID, req.Reason)
	switch {
	case err == nil:
	case errors.Is(err, mongo.ErrNoDocuments):
		httpjson.Error(w, http.StatusNotFound, "cohort not found")
		return
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrTerminal),
		errors.Is(err, cohortstore.ErrStateChanged):
		httpjson.Error(w, http.StatusConflict, err.Error())
		return
	default:
		h.Log.Error("transition cohort", zap.Error(err), zap.String("cohort_id", id.Hex()))
		httpjson.Internal(w)
		return
	}

	cohort, err := h.Cohorts.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("reload cohort", zap.Error(err), zap.String("cohort_id", id.Hex()))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, cohort)
}

// ServeCancel handles POST /api/cohorts/{id}/cancel. Cancellation is
// allowed from any non-terminal state.
func (h *Handler) ServeCancel(w http.ResponseWriter, r *http.Request) {
	role, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := cohortID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid cohort id")
		return
	}

	var req cancelRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	before, err := h.Cohorts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "cohort not found")
			return
		}
		h.Log.Error("get cohort", zap.Error(err), zap.String("cohort_id", id.Hex()))
		httpjson.Internal(w)
		return
	}

	err = h.Lifecycle.Cancel(ctx, id, role, &actorID, req.Reason)
	switch {
	case err == nil:
	case errors.Is(err, lifecycle.ErrTerminal), errors.Is(err, cohortstore.ErrStateChanged):
		httpjson.Error(w, http.StatusConflict, err.Error())
		return
	default:
		h.Log.Error("cancel cohort", zap.Error(err), zap.String("cohort_id", id.Hex()))
		httpjson.Internal(w)
		return
	}
	h.Audit.CohortCancelled(ctx, r, actorID, id, role, before.Status, req.Reason)

	httpjson.Write(w, http.StatusOK, map[string]string{"status": models.CohortCancelled})
}
