// internal/app/features/promocodes/routes.go
package promocodes

import (
	"github.com/go-chi/chi/v5"

	"github.com/kdmlabs/kdmhub/internal/app/system/auth"
)

// CheckRoutes mounts the signed-in code check under /api/promo-codes.
func CheckRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Get("/check", h.ServeCheck)
	})

	return r
}

// AdminRoutes mounts the promo-code admin API under /api/admin/promo-codes.
func AdminRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireSignedIn)
		ar.Use(auth.RequireRole("admin"))

		ar.Get("/", h.ServeList)
		ar.Post("/", h.ServeCreate)
		ar.Post("/{id}/deactivate", h.ServeDeactivate)
	})

	return r
}
