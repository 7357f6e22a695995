// internal/app/features/introductions/routes.go
package introductions

import (
	"github.com/go-chi/chi/v5"

	"github.com/kdmlabs/kdmhub/internal/app/system/auth"
)

// Routes mounts the introduction API under /api/introductions.
// Proposing is admin only; listing and resolving include the partner side.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Use(auth.RequireRole("admin", "partner"))

		pr.Get("/", h.ServeList)
		pr.Post("/{id}/accept", h.ServeAccept)
		pr.Post("/{id}/decline", h.ServeDecline)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireSignedIn)
		ar.Use(auth.RequireRole("admin"))

		ar.Post("/", h.ServeCreate)
	})

	return r
}
