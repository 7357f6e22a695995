// internal/app/features/settlements/routes.go
package settlements

import (
	"github.com/go-chi/chi/v5"

	"github.com/kdmlabs/kdmhub/internal/app/system/auth"
)

// Routes mounts the settlement API under /api/settlements. Admin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireSignedIn)
		ar.Use(auth.RequireRole("admin"))

		ar.Get("/", h.ServeList)
		ar.Post("/", h.ServeCreate)
		ar.Get("/{id}", h.ServeGet)
		ar.Post("/{id}/finalize", h.ServeFinalize)
		ar.Put("/{id}/notes", h.ServeUpdateNotes)
	})

	return r
}
