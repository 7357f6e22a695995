// internal/app/features/cohorts/routes.go
package cohorts

import (
	"github.com/go-chi/chi/v5"

	"github.com/kdmlabs/kdmhub/internal/app/system/auth"
)

// Routes mounts the cohort API under /api/cohorts. Reads and seat
// operations are open to any signed-in user; lifecycle moves and the
// waitlist repair are admin only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeGet)
		pr.Get("/{id}/capacity", h.ServeCapacity)
		pr.Post("/{id}/enroll", h.ServeEnroll)
		pr.Post("/{id}/waitlist", h.ServeJoinWaitlist)
		pr.Post("/{id}/release", h.ServeRelease)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireSignedIn)
		ar.Use(auth.RequireRole("admin"))

		ar.Post("/", h.ServeCreate)
		ar.Post("/{id}/transition", h.ServeTransition)
		ar.Post("/{id}/cancel", h.ServeCancel)
		ar.Post("/{id}/waitlist/reorder", h.ServeReorderWaitlist)
	})

	return r
}
