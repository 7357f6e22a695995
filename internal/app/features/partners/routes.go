// internal/app/features/partners/routes.go
package partners

import (
	"github.com/go-chi/chi/v5"

	"github.com/kdmlabs/kdmhub/internal/app/system/auth"
)

// Routes mounts the partner API under /api/partners. Admin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireSignedIn)
		ar.Use(auth.RequireRole("admin"))

		ar.Get("/", h.ServeList)
		ar.Post("/", h.ServeCreate)
		ar.Get("/{id}", h.ServeGet)
		ar.Put("/{id}", h.ServeUpdate)
	})

	return r
}
