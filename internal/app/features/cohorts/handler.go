// internal/app/features/cohorts/handler.go
package cohorts

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

	"github.com/kdmlabs/kdmhub/internal/app/capacity"
	"github.com/kdmlabs/kdmhub/internal/app/lifecycle"
	cohortstore "github.com/kdmlabs/kdmhub/internal/app/store/cohorts"
	"github.com/kdmlabs/kdmhub/internal/app/system/auditlog"
	"github.com/kdmlabs/kdmhub/internal/app/system/authz"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/inputval"
	"github.com/kdmlabs/kdmhub/internal/app/system/paging"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// Handler serves the cohort API: CRUD-style reads, lifecycle moves, and
// seat/waitlist operations.
type Handler struct {
	Cohorts   *cohortstore.Store
	Lifecycle *lifecycle.Service
	Capacity  *capacity.Manager
	Audit     *auditlog.Logger
	Log       *zap.Logger
}

// NewHandler constructs a cohorts feature handler.
func NewHandler(cohorts *cohortstore.Store, lc *lifecycle.Service, cap *capacity.Manager, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Cohorts:   cohorts,
		Lifecycle: lc,
		Capacity:  cap,
		Audit:     auditLog,
		Log:       logger,
	}
}

func cohortID(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
}

type createRequest struct {
	Title           string    `json:"title" validate:"required,min=2,max=200"`
	Description     string    `json:"description" validate:"max=5000"`
	MaxParticipants int       `json:"max_participants" validate:"required,gt=0"`
	InstructorID    string    `json:"instructor_id,omitempty"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required"`
}

// ServeCreate handles POST /api/cohorts. Cohorts are born in draft.
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
	if req.EndDate.Before(req.StartDate) {
		httpjson.Error(w, http.StatusBadRequest, "end_date must not precede start_date")
		return
	}

	var instructorID *primitive.ObjectID
	if req.InstructorID != "" {
		oid, err := primitive.ObjectIDFromHex(req.InstructorID)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid instructor_id")
			return
		}
		instructorID = &oid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cohort, err := h.Cohorts.Create(ctx, models.Cohort{
		Title:           req.Title,
		Description:     req.Description,
		MaxParticipants: req.MaxParticipants,
		InstructorID:    instructorID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
	})
	if err != nil {
		h.Log.Error("create cohort", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	h.Audit.CohortCreated(ctx, r, actorID, cohort.ID, role, cohort.Title)

	httpjson.Write(w, http.StatusCreated, cohort)
}

// ServeList handles GET /api/cohorts with an optional status filter.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	status := query.Get(r, "status")
	if status != "" && !models.ValidCohortStatus(status) {
		httpjson.Error(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	limit := paging.ParseLimit(r)
	offset := paging.ParseOffset(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Cohorts.List(ctx, status, int64(limit), offset)
	if err != nil {
		h.Log.Error("list cohorts", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if rows == nil {
		rows = []models.Cohort{}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"cohorts": rows,
		"limit":   limit,
		"offset":  offset,
	})
}

// ServeGet handles GET /api/cohorts/{id}. The response carries the
// cohort plus its transition history.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := cohortID(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid cohort id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cohort, err := h.Cohorts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "cohort not found")
			return
		}
		h.Log.Error("get cohort", zap.Error(err), zap.String("cohort_id", id.Hex()))
		httpjson.Internal(w)
		return
	}

	transitions, err := h.Cohorts.Transitions(ctx, id)
	if err != nil {
		h.Log.Error("load cohort transitions", zap.Error(err), zap.String("cohort_id", id.Hex()))
		httpjson.Internal(w)
		return
	}
	if transitions == nil {
		transitions = []models.CohortTransition{}
	}

	httpjson.Write(w, http.StatusOK, map[string]any{
		"cohort":      cohort,
		"transitions": transitions,
	})
}
