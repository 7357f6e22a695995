// internal/app/features/partners/list.go
package partners

import (
	"context"
	"maps"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/paging"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// ServeList handles GET /api/partners with optional ?q= prefix search
// and keyset pagination on the folded name.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := query.Search(r, "q")
	after := query.Get(r, "after")
	before := query.Get(r, "before")
	limit := paging.ParseLimit(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	base := bson.M{}
	if q != "" {
		if fq := text.Fold(q); fq != "" {
			base["name_ci"] = bson.M{"$gte": fq, "$lt": fq + "\uffff"}
		}
	}

	coll := h.DB.Collection("partners")
	total, err := coll.CountDocuments(ctx, base)
	if err != nil {
		h.Log.Error("count partners", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	f := maps.Clone(base)
	find := options.Find()
	sortField := "name_ci"

	cfg := paging.ConfigureKeyset(before, after, limit)
	cfg.ApplyToFind(find, sortField)
	if ks := cfg.KeysetWindow(sortField); ks != nil {
		maps.Copy(f, ks)
	}

	cur, err := coll.Find(ctx, f, find)
	if err != nil {
		h.Log.Error("find partners", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	defer cur.Close(ctx)

	var rows []models.Partner
	if err := cur.All(ctx, &rows); err != nil {
		h.Log.Error("decode partners", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	if cfg.Direction == paging.Backward {
		paging.Reverse(rows)
	}
	page := paging.TrimPage(&rows, before, after, limit)

	prevCur, nextCur := paging.BuildCursors(rows,
		func(p models.Partner) string { return p.NameCI },
		func(p models.Partner) primitive.ObjectID { return p.ID })

	if rows == nil {
		rows = []models.Partner{}
	}
	httpjson.Write(w, http.StatusOK, map[string]any{
		"partners":    rows,
		"total":       total,
		"has_prev":    page.HasPrev,
		"has_next":    page.HasNext,
		"prev_cursor": prevCur,
		"next_cursor": nextCur,
	})
}
