// internal/app/features/leads/list.go
package leads

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"

	leadstore "github.com/kdmlabs/kdmhub/internal/app/store/leads"
	"github.com/kdmlabs/kdmhub/internal/app/system/authz"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/paging"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

type listResponse struct {
	Leads  []models.Lead `json:"leads"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int64         `json:"offset"`
}

// ServeList handles GET /api/leads. Admins see every lead and may
// filter by partner or the unassigned queue; partner users are pinned
// to their own partner's leads regardless of query parameters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter := leadstore.Filter{
		Status:      query.Get(r, "status"),
		Industry:    query.Get(r, "industry"),
		ServiceType: query.Get(r, "service_type"),
	}

	switch role {
	case "admin":
		if pid := query.Get(r, "partner_id"); pid != "" {
			oid, err := parseID(pid)
			if err != nil {
				httpjson.Error(w, http.StatusBadRequest, "invalid partner_id")
				return
			}
			filter.PartnerID = &oid
		} else if query.Get(r, "unassigned") == "true" {
			filter.Unassigned = true
		}
	case "partner":
		pid := authz.UserPartnerID(r)
		if pid.IsZero() {
			httpjson.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		filter.PartnerID = &pid
	default:
		httpjson.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	if filter.Status != "" && !models.ValidLeadStatus(filter.Status) {
		httpjson.Error(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	limit := paging.ParseLimit(r)
	offset := paging.ParseOffset(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	total, err := h.Leads.Count(ctx, filter)
	if err != nil {
		h.Log.Error("count leads", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	rows, err := h.Leads.List(ctx, filter, int64(limit), offset)
	if err != nil {
		h.Log.Error("list leads", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	if rows == nil {
		rows = []models.Lead{}
	}

	httpjson.Write(w, http.StatusOK, listResponse{
		Leads:  rows,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}
