// internal/app/features/sponsors/routes.go
package sponsors

import (
	"github.com/go-chi/chi/v5"

	"github.com/kdmlabs/kdmhub/internal/app/system/auth"
)

// PublicRoutes mounts the unauthenticated sponsor list under /api/sponsors.
func PublicRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	return r
}

// AdminRoutes mounts the sponsor CRUD under /api/admin/sponsors.
func AdminRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireSignedIn)
		ar.Use(auth.RequireRole("admin"))

		ar.Get("/", h.ServeList)
		ar.Post("/", h.ServeCreate)
		ar.Put("/{id}", h.ServeUpdate)
		ar.Delete("/{id}", h.ServeDelete)
	})

	return r
}
