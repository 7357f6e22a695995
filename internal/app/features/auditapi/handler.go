// internal/app/features/auditapi/handler.go
package auditapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/store/audit"
	userstore "github.com/kdmlabs/kdmhub/internal/app/store/users"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/paging"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
)

// Handler exposes the audit trail to admins. Events are immutable; this
// is a read-only surface.
type Handler struct {
	Audit *audit.Store
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(auditStore *audit.Store, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Audit: auditStore, Users: users, Log: logger}
}

// listItem is the JSON projection of an audit event. Actor and target
// IDs are resolved to display names when the users still exist.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	ActorID       string            `json:"actor_id,omitempty"`
	ActorName     string            `json:"actor_name,omitempty"`
	UserID        string            `json:"user_id,omitempty"`
	UserName      string            `json:"user_name,omitempty"`
	EntityKind    string            `json:"entity_kind,omitempty"`
	EntityID      string            `json:"entity_id,omitempty"`
	IP            string            `json:"ip,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// ServeList handles GET /api/audit with filtering by category,
// event_type, entity, user, and date range.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(query.Get(r, "category")),
		EventType: strings.TrimSpace(query.Get(r, "event_type")),
		Limit:     int64(paging.ParseLimit(r)),
		Offset:    paging.ParseOffset(r),
	}

	if s := query.Get(r, "entity_kind"); s != "" {
		filter.EntityKind = s
	}
	if s := query.Get(r, "entity_id"); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid entity_id")
			return
		}
		filter.EntityID = &id
	}
	if s := query.Get(r, "user_id"); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		filter.UserID = &id
	}
	if s := query.Get(r, "start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
			return
		}
		filter.StartTime = &t
	}
	if s := query.Get(r, "end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
			return
		}
		endOfDay := t.Add(24*time.Hour - time.Second)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events, err := h.Audit.Query(ctx, filter)
	if err != nil {
		h.Log.Error("query audit events", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	total, err := h.Audit.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("count audit events", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	names := h.resolveNames(ctx, events)

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			EntityKind:    e.EntityKind,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
		if e.EntityID != nil {
			item.EntityID = e.EntityID.Hex()
		}
		if e.ActorID != nil {
			item.ActorID = e.ActorID.Hex()
			item.ActorName = names[*e.ActorID]
		}
		if e.UserID != nil {
			item.UserID = e.UserID.Hex()
			item.UserName = names[*e.UserID]
		}
		items = append(items, item)
	}

	httpjson.Write(w, http.StatusOK, map[string]any{
		"events": items,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// resolveNames batch-fetches display names for every actor and target
// in the page. Lookup failures degrade to bare IDs rather than erroring
// the whole listing.
func (h *Handler) resolveNames(ctx context.Context, events []audit.Event) map[primitive.ObjectID]string {
	idSet := make(map[primitive.ObjectID]struct{})
	for _, e := range events {
		if e.ActorID != nil {
			idSet[*e.ActorID] = struct{}{}
		}
		if e.UserID != nil {
			idSet[*e.UserID] = struct{}{}
		}
	}

	names := make(map[primitive.ObjectID]string, len(idSet))
	if len(idSet) == 0 {
		return names
	}

	ids := make([]primitive.ObjectID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	users, err := h.Users.GetByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("resolve user names for audit listing", zap.Error(err))
		return names
	}
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	return names
}
