// internal/app/features/cron/routes.go
package cron

import "github.com/go-chi/chi/v5"

// Routes mounts the cron API under /api/cron.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(h.RequireSecret)

	r.Get("/cohort-sweep", h.ServeCohortSweep)
	r.Get("/weekly-digest", h.ServeWeeklyDigest)

	return r
}
