// internal/app/features/settingsapi/handler.go
package settingsapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	settingsstore "github.com/kdmlabs/kdmhub/internal/app/store/settings"
	"github.com/kdmlabs/kdmhub/internal/app/system/authz"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/inputval"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// Handler serves the single site settings document. Reads are cheap
// because the store caches; writes stamp the acting admin.
type Handler struct {
	Settings *settingsstore.Store
	Log      *zap.Logger
}

func NewHandler(settings *settingsstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Settings: settings, Log: logger}
}

// ServeGet handles GET /api/settings.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	settings, err := h.Settings.Get(ctx)
	if err != nil {
		h.Log.Error("load site settings", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, settings)
}

type updateRequest struct {
	SiteName       string   `json:"site_name" validate:"required,min=2,max=120"`
	SupportEmail   string   `json:"support_email" validate:"omitempty,email"`
	DigestAudience []string `json:"digest_audience" validate:"omitempty,dive,email"`
	FooterHTML     string   `json:"footer_html" validate:"max=20000"`
}

// ServeUpdate handles PUT /api/settings. The whole document is replaced;
// there is no field-level patch.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	_, name, actorID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateRequest
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

	settings := models.SiteSettings{
		SiteName:       req.SiteName,
		SupportEmail:   req.SupportEmail,
		DigestAudience: req.DigestAudience,
		FooterHTML:     req.FooterHTML,
		UpdatedByID:    &actorID,
		UpdatedByName:  name,
	}
	if err := h.Settings.Save(ctx, settings); err != nil {
		h.Log.Error("save site settings", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	saved, err := h.Settings.Get(ctx)
	if err != nil {
		h.Log.Error("reload site settings", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, saved)
}
