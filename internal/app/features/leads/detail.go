// internal/app/features/leads/detail.go
package leads

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	leadstore "github.com/kdmlabs/kdmhub/internal/app/store/leads"
	"github.com/kdmlabs/kdmhub/internal/app/system/authz"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

func parseID(s string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(strings.TrimSpace(s))
}

// ServeGet handles GET /api/leads/{id}. Partners may only read leads
// assigned to them.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid lead id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	lead, err := h.Leads.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "lead not found")
			return
		}
		h.Log.Error("get lead", zap.Error(err), zap.String("lead_id", id.Hex()))
		httpjson.Internal(w)
		return
	}
	if !authz.CanSeeLead(r, lead.PartnerID) {
		httpjson.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	httpjson.Write(w, http.StatusOK, lead)
}

type updateRequest struct {
	Status        string     `json:"status,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	FollowUpDate  *time.Time `json:"follow_up_date,omitempty"`
	ClearFollowUp bool       `json:"clear_follow_up,omitempty"`
	// PartnerID reassigns the lead. Admin only; empty string clears the
	// assignment back to the default queue.
	PartnerID *string `json:"partner_id,omitempty"`
}

// ServeUpdate handles PUT /api/leads/{id}. Partners may update status,
// notes, and follow-up on their own leads; reassignment is admin only
// and fans out the partner notification.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	role, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid lead id")
		return
	}

	var req updateRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != "" && !models.ValidLeadStatus(req.Status) {
		httpjson.Error(w, http.StatusBadRequest, "invalid status")
		return
	}
	if req.PartnerID != nil && role != "admin" {
		httpjson.Error(w, http.StatusForbidden, "only admins may reassign leads")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	lead, err := h.Leads.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "lead not found")
			return
		}
		h.Log.Error("get lead", zap.Error(err), zap.String("lead_id", id.Hex()))
		httpjson.Internal(w)
		return
	}
	if !authz.CanSeeLead(r, lead.PartnerID) {
		httpjson.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	var changed []string
	if req.Status != "" || req.Notes != nil || req.FollowUpDate != nil || req.ClearFollowUp {
		err := h.Leads.ApplyUpdate(ctx, id, leadstore.Update{
			Status:        req.Status,
			Notes:         req.Notes,
			FollowUpDate:  req.FollowUpDate,
			ClearFollowUp: req.ClearFollowUp,
		})
		if err != nil {
			h.Log.Error("update lead", zap.Error(err), zap.String("lead_id", id.Hex()))
			httpjson.Internal(w)
			return
		}
		if req.Status != "" {
			changed = append(changed, "status")
		}
		if req.Notes != nil {
			changed = append(changed, "notes")
		}
		if req.FollowUpDate != nil || req.ClearFollowUp {
			changed = append(changed, "follow_up_date")
		}
	}

	if req.PartnerID != nil {
		if *req.PartnerID == "" {
			if err := h.Leads.Assign(ctx, id, nil, 0, "manually unassigned"); err != nil {
				h.Log.Error("unassign lead", zap.Error(err), zap.String("lead_id", id.Hex()))
				httpjson.Internal(w)
				return
			}
			h.Audit.LeadAssigned(ctx, id, nil, 0, "manually unassigned")
		} else {
			pid, err := parseID(*req.PartnerID)
			if err != nil {
				httpjson.Error(w, http.StatusBadRequest, "invalid partner_id")
				return
			}
			if err := h.Router.Reassign(ctx, id, pid); err != nil {
				h.Log.Error("reassign lead", zap.Error(err), zap.String("lead_id", id.Hex()))
				httpjson.Internal(w)
				return
			}
		}
		changed = append(changed, "partner_id")
	}

	if len(changed) > 0 {
		h.Audit.LeadUpdated(ctx, r, actorID, id, role, strings.Join(changed, ","))
	}

	updated, err := h.Leads.GetByID(ctx, id)
	if err != nil {
		h.Log.Error("reload lead", zap.Error(err), zap.String("lead_id", id.Hex()))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, updated)
}
