// internal/app/features/auditapi/routes.go
package auditapi

import (
	"github.com/go-chi/chi/v5"

	"github.com/kdmlabs/kdmhub/internal/app/system/auth"
)

// Routes mounts the audit API under /api/audit. Admin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireRole("admin"))

	r.Get("/", h.ServeList)

	return r
}
