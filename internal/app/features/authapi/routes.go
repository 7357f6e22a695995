// internal/app/features/authapi/routes.go
package authapi

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the auth API under /api/auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.ServeLogin)
	r.Post("/logout", h.ServeLogout)
	r.Get("/me", h.ServeMe)

	return r
}
