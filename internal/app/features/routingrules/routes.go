// internal/app/features/routingrules/routes.go
package routingrules

import (
	"github.com/go-chi/chi/v5"

	"github.com/kdmlabs/kdmhub/internal/app/system/auth"
)

// Routes mounts the routing-rule CRUD under /api/routing-rules.
// Admin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Use(auth.RequireRole("admin"))

		pr.Get("/", h.ServeList)
		pr.Post("/", h.ServeCreate)
		pr.Get("/{id}", h.ServeGet)
		pr.Put("/{id}", h.ServeUpdate)
		pr.Delete("/{id}", h.ServeDelete)
	})

	return r
}
