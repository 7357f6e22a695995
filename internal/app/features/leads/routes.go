// internal/app/features/leads/routes.go
package leads

import (
	"github.com/go-chi/chi/v5"

	"github.com/kdmlabs/kdmhub/internal/app/system/auth"
)

// Routes mounts the leads API under /api/leads. Capture is public;
// everything else requires a signed-in admin or partner user.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.ServeCapture)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Use(auth.RequireRole("admin", "partner"))

		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeGet)
		pr.Put("/{id}", h.ServeUpdate)
	})

	return r
}
