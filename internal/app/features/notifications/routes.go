// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/go-chi/chi/v5"

	"github.com/kdmlabs/kdmhub/internal/app/system/auth"
)

// Routes mounts the notification API under /api/notifications.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Get("/count", h.ServeCount)
	r.Post("/{id}/read", h.ServeMarkRead)

	return r
}
