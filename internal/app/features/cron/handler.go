// internal/app/features/cron/handler.go
package cron

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/lifecycle"
	cohortstore "github.com/kdmlabs/kdmhub/internal/app/store/cohorts"
	leadstore "github.com/kdmlabs/kdmhub/internal/app/store/leads"
	outboxstore "github.com/kdmlabs/kdmhub/internal/app/store/outbox"
	settingsstore "github.com/kdmlabs/kdmhub/internal/app/store/settings"
	userstore "github.com/kdmlabs/kdmhub/internal/app/store/users"
	"github.com/kdmlabs/kdmhub/internal/app/system/httpjson"
	"github.com/kdmlabs/kdmhub/internal/app/system/mailer"
	"github.com/kdmlabs/kdmhub/internal/app/system/timeouts"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// digestWindow is how far back the weekly digest counts activity.
const digestWindow = 7 * 24 * time.Hour

// Handler serves scheduler-invoked endpoints. External cron hits these
// with a shared bearer secret; they are idempotent, so an overlapping
// invocation or a retry does no harm.
type Handler struct {
	Lifecycle *lifecycle.Service
	Leads     *leadstore.Store
	Cohorts   *cohortstore.Store
	Settings  *settingsstore.Store
	Users     *userstore.Store
	Outbox    *outboxstore.Store

	Secret string
	Log    *zap.Logger
}

func NewHandler(
	svc *lifecycle.Service,
	leads *leadstore.Store,
	cohorts *cohortstore.Store,
	settings *settingsstore.Store,
	users *userstore.Store,
	outbox *outboxstore.Store,
	secret string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Lifecycle: svc,
		Leads:     leads,
		Cohorts:   cohorts,
		Settings:  settings,
		Users:     users,
		Outbox:    outbox,
		Secret:    secret,
		Log:       logger,
	}
}

// RequireSecret gates cron endpoints behind the shared bearer secret.
// An empty configured secret disables the endpoints entirely rather
// than leaving them open.
func (h *Handler) RequireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Secret == "" {
			httpjson.Error(w, http.StatusForbidden, "cron endpoints are disabled")
			return
		}
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == token || subtle.ConstantTimeCompare([]byte(token), []byte(h.Secret)) != 1 {
			httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ServeCohortSweep handles GET /api/cron/cohort-sweep. It runs the same
// sweep the interval worker runs, for deployments that prefer external
// scheduling.
func (h *Handler) ServeCohortSweep(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	advanced, err := h.Lifecycle.Sweep(ctx, time.Now().UTC())
	if err != nil {
		h.Log.Error("cron cohort sweep", zap.Error(err))
		httpjson.Internal(w)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"advanced": advanced})
}

// ServeWeeklyDigest handles GET /api/cron/weekly-digest. It summarizes
// the past week and queues one digest email per recipient. The audience
// comes from site settings, falling back to all active admins.
func (h *Handler) ServeWeeklyDigest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	settings, err := h.Settings.Get(ctx)
	if err != nil {
		h.Log.Error("load settings for digest", zap.Error(err))
		httpjson.Internal(w)
		return
	}

	recipients := settings.DigestAudience
	if len(recipients) == 0 {
		recipients, err = h.Users.ListEmailsByRoles(ctx, []string{models.RoleAdmin})
		if err != nil {
			h.Log.Error("resolve digest audience", zap.Error(err))
			httpjson.Internal(w)
			return
		}
	}
	if len(recipients) == 0 {
		httpjson.Write(w, http.StatusOK, map[string]any{"recipients": 0})
		return
	}

	since := time.Now().UTC().Add(-digestWindow)

	data := mailer.DigestData{SiteName: settings.SiteName}
	if n, err := h.Leads.CountCapturedSince(ctx, since); err == nil {
		data.NewLeads = int(n)
	} else {
		h.Log.Warn("count captured leads for digest", zap.Error(err))
	}
	if n, err := h.Leads.CountAssignedSince(ctx, since); err == nil {
		data.AssignedLeads = int(n)
	} else {
		h.Log.Warn("count assigned leads for digest", zap.Error(err))
	}
	if n, err := h.Cohorts.CountByStatus(ctx, models.CohortActive); err == nil {
		data.ActiveCohorts = int(n)
	} else {
		h.Log.Warn("count active cohorts for digest", zap.Error(err))
	}
	if n, err := h.Cohorts.CountTransitionsSince(ctx, since); err == nil {
		data.Transitions = int(n)
	} else {
		h.Log.Warn("count cohort transitions for digest", zap.Error(err))
	}

	email := mailer.BuildDigestEmail(data)
	queued := 0
	for _, to := range recipients {
		_, err := h.Outbox.Enqueue(ctx, models.OutboxMessage{
			To:       to,
			Subject:  email.Subject,
			TextBody: email.TextBody,
			HTMLBody: email.HTMLBody,
		})
		if err != nil {
			h.Log.Error("enqueue digest email", zap.Error(err), zap.String("to", to))
			continue
		}
		queued++
	}

	h.Log.Info("weekly digest queued",
		zap.Int("recipients", queued),
		zap.Int("new_leads", data.NewLeads),
		zap.Int("assigned_leads", data.AssignedLeads))

	httpjson.Write(w, http.StatusOK, map[string]any{"recipients": queued})
}
