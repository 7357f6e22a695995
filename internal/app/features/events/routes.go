// internal/app/features/events/routes.go
package events

import (
	"github.com/go-chi/chi/v5"

	"github.com/kdmlabs/kdmhub/internal/app/system/auth"
)

// PublicRoutes mounts the unauthenticated published-events list under
// /api/events.
func PublicRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServePublicList)
	return r
}

// AdminRoutes mounts the event CRUD under /api/admin/events.
func AdminRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireSignedIn)
		ar.Use(auth.RequireRole("admin"))

		ar.Get("/", h.ServeAdminList)
		ar.Post("/", h.ServeCreate)
		ar.Get("/{id}", h.ServeGet)
		ar.Put("/{id}", h.ServeUpdate)
		ar.Delete("/{id}", h.ServeDelete)
	})

	return r
}
