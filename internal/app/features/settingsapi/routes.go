// internal/app/features/settingsapi/routes.go
package settingsapi

import (
	"github.com/go-chi/chi/v5"

	"github.com/kdmlabs/kdmhub/internal/app/system/auth"
)

// Routes mounts the settings API under /api/settings. Any signed-in user
// may read; only admins may write.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(sr chi.Router) {
		sr.Use(auth.RequireSignedIn)

		sr.Get("/", h.ServeGet)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireSignedIn)
		ar.Use(auth.RequireRole("admin"))

		ar.Put("/", h.ServeUpdate)
	})

	return r
}
