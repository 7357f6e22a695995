// internal/app/features/cohorts/seats.go
package cohorts

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/capacity"
	memberstore "github.com/kdmlabs/kdmhub/internal/app/store/members"
	waitliststore "github.com/kdmlabs/kdmhub/internal/app/store/waitlist"
	"github.com/kdmlabs/kdmhub/internal/app/system/authz"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
)

// ServeCapacity handles GET /api/cohorts/{id}/capacity.
func (h *Handler) ServeCapacity(w http.ResponseWriter, r *http.Request) {
	id, err := cohortID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid cohort id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	status, err := h.Capacity.CheckCapacity(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "cohort not found")
			return
		}
		h.Log.Error("check capacity", zap.Error(err), zap.String("cohort_id", id.Hex()))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, status)
}

// ServeEnroll handles POST /api/cohorts/{id}/enroll. The signed-in user
// takes a seat; a full cohort is a conflict and the caller should offer
// the waitlist instead.
func (h *Handler) ServeEnroll(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := cohortID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid cohort id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	member, err := h.Capacity.Enroll(ctx, id, userID)
	switch {
	case err == nil:
	case errors.Is(err, mongo.ErrNoDocuments):
		httpjson.Error(w, http.StatusNotFound, "cohort not found")
		return
	case errors.Is(err, capacity.ErrCohortFull):
		httpjson.Write(w, http.StatusConflict, map[string]string{
			"error": "cohort is at capacity",
			"hint":  "join the waitlist to be offered the next open seat",
		})
		return
	case errors.Is(err, capacity.ErrNotEnrolling), errors.Is(err, memberstore.ErrAlreadyEnrolled):
		httpjson.Error(w, http.StatusConflict, err.Error())
		return
	default:
		h.Log.Error("enroll", zap.Error(err), zap.String("cohort_id", id.Hex()))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusCreated, member)
}

// ServeJoinWaitlist handles POST /api/cohorts/{id}/waitlist.
func (h *Handler) ServeJoinWaitlist(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := cohortID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid cohort id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	entry, err := h.Capacity.AddToWaitlist(ctx, id, userID)
	switch {
	case err == nil:
	case errors.Is(err, mongo.ErrNoDocuments):
		httpjson.Error(w, http.StatusNotFound, "cohort not found")
		return
	case errors.Is(err, waitliststore.ErrAlreadyWaiting):
		httpjson.Error(w, http.StatusConflict, err.Error())
		return
	default:
		h.Log.Error("join waitlist", zap.Error(err), zap.String("cohort_id", id.Hex()))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusCreated, entry)
}

type releaseRequest struct {
	UserID string `json:"user_id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ServeRelease handles POST /api/cohorts/{id}/release. Members drop
// their own seat; admins may drop anyone's by naming user_id.
func (h *Handler) ServeRelease(w http.ResponseWriter, r *http.Request) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := cohortID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid cohort id")
		return
	}

	var req releaseRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target := userID
	if req.UserID != "" {
		oid, err := primitive.ObjectIDFromHex(req.UserID)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		if oid != userID && role != "admin" {
			httpjson.Error(w, http.StatusForbidden, "only admins may release another member's seat")
			return
		}
		target = oid
	}

	reason := req.Reason
	if reason == "" {
		reason = "member withdrew"
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err = h.Capacity.ReleaseSeat(ctx, id, target, reason)
	switch {
	case err == nil:
	case errors.Is(err, capacity.ErrNotMember):
		httpjson.Error(w, http.StatusConflict, err.Error())
		return
	default:
		h.Log.Error("release seat", zap.Error(err), zap.String("cohort_id", id.Hex()))
		httpjson.Internal(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeReorderWaitlist handles POST /api/cohorts/{id}/waitlist/reorder,
// the admin repair that renumbers live entries to 1..N.
func (h *Handler) ServeReorderWaitlist(w http.ResponseWriter, r *http.Request) {
	id, err := cohortID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid cohort id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Capacity.Reorder(ctx, id); err != nil {
		h.Log.Error("reorder waitlist", zap.Error(err), zap.String("cohort_id", id.Hex()))
		httpjson.Internal(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
