// internal/app/features/leads/capture.go
package leads

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	leadstore "github.com/kdmlabs/kdmhub/internal/app/store/leads"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/inputval"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

type captureRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	Email       string `json:"email" validate:"required"`
	Company     string `json:"company" validate:"max=200"`
	Industry    string `json:"industry" validate:"max=100"`
	ServiceType string `json:"service_type" validate:"max=100"`
	Source      string `json:"source" validate:"max=100"`
	Notes       string `json:"notes" validate:"max=2000"`
}

type captureResponse struct {
	LeadID string `json:"lead_id"`
}

// ServeCapture handles POST /api/leads. Unauthenticated: this is the
// public intake form. A duplicate email is a 409; the routing side
// effect never fails the capture.
func (h *Handler) ServeCapture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
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
	if !inputval.IsValidEmail(req.Email) {
		httpjson.Error(w, http.StatusBadRequest, "email must be a valid email address")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	lead, err := h.Leads.Create(ctx, models.Lead{
		Name:        req.Name,
		Email:       req.Email,
		Company:     req.Company,
		Industry:    req.Industry,
		ServiceType: req.ServiceType,
		Source:      req.Source,
		Notes:       req.Notes,
	})
	if err != nil {
		if errors.Is(err, leadstore.ErrDuplicateEmail) {
			httpjson.Error(w, http.StatusConflict, "a lead with this email already exists")
			return
		}
		h.Log.Error("create lead", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	h.Audit.LeadCaptured(ctx, r, lead.ID, lead.Industry, lead.ServiceType)

	// Routing runs inside the request but cannot fail it: the lead is
	// already captured, and an unrouted lead just sits in the default
	// queue.
	routeCtx, routeCancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer routeCancel()
	if err := h.Router.Route(routeCtx, lead); err != nil {
		h.Log.Error("route captured lead",
			zap.Error(err), zap.String("lead_id", lead.ID.Hex()))
	}

	httpjson.Write(w, http.StatusCreated, captureResponse{LeadID: lead.ID.Hex()})
}
