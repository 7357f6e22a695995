// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	auditapifeature "github.com/kdmlabs/kdmhub/internal/app/features/auditapi"
	authapifeature "github.com/kdmlabs/kdmhub/internal/app/features/authapi"
	authgooglefeature "github.com/kdmlabs/kdmhub/internal/app/features/authgoogle"
	cohortsfeature "github.com/kdmlabs/kdmhub/internal/app/features/cohorts"
	cronfeature "github.com/kdmlabs/kdmhub/internal/app/features/cron"
	eventsfeature "github.com/kdmlabs/kdmhub/internal/app/features/events"
	healthfeature "github.com/kdmlabs/kdmhub/internal/app/features/health"
	introductionsfeature "github.com/kdmlabs/kdmhub/internal/app/features/introductions"
	leadsfeature "github.com/kdmlabs/kdmhub/internal/app/features/leads"
	notificationsfeature "github.com/kdmlabs/kdmhub/internal/app/features/notifications"
	partnersfeature "github.com/kdmlabs/kdmhub/internal/app/features/partners"
	promocodesfeature "github.com/kdmlabs/kdmhub/internal/app/features/promocodes"
	routingrulesfeature "github.com/kdmlabs/kdmhub/internal/app/features/routingrules"
	settingsapifeature "github.com/kdmlabs/kdmhub/internal/app/features/settingsapi"
	settlementsfeature "github.com/kdmlabs/kdmhub/internal/app/features/settlements"
	sponsorsfeature "github.com/kdmlabs/kdmhub/internal/app/features/sponsors"
	"github.com/kdmlabs/kdmhub/internal/app/capacity"
	"github.com/kdmlabs/kdmhub/internal/app/lifecycle"
	"github.com/kdmlabs/kdmhub/internal/app/routing"
	"github.com/kdmlabs/kdmhub/internal/app/store/audit"
	cohortstore "github.com/kdmlabs/kdmhub/internal/app/store/cohorts"
	eventstore "github.com/kdmlabs/kdmhub/internal/app/store/events"
	introstore "github.com/kdmlabs/kdmhub/internal/app/store/introductions"
	leadstore "github.com/kdmlabs/kdmhub/internal/app/store/leads"
	memberstore "github.com/kdmlabs/kdmhub/internal/app/store/members"
	notifystore "github.com/kdmlabs/kdmhub/internal/app/store/notifications"
	"github.com/kdmlabs/kdmhub/internal/app/store/oauthstate"
	outboxstore "github.com/kdmlabs/kdmhub/internal/app/store/outbox"
	partnerstore "github.com/kdmlabs/kdmhub/internal/app/store/partners"
	promostore "github.com/kdmlabs/kdmhub/internal/app/store/promocodes"
	rulestore "github.com/kdmlabs/kdmhub/internal/app/store/routingrules"
	settingsstore "github.com/kdmlabs/kdmhub/internal/app/store/settings"
	settlementstore "github.com/kdmlabs/kdmhub/internal/app/store/settlements"
	sponsorstore "github.com/kdmlabs/kdmhub/internal/app/store/sponsors"
	userstore "github.com/kdmlabs/kdmhub/internal/app/store/users"
	waitliststore "github.com/kdmlabs/kdmhub/internal/app/store/waitlist"
	"github.com/kdmlabs/kdmhub/internal/app/system/auth"
)

// BuildHandler constructs the root HTTP handler for the app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and Startup have completed. It builds the stores and domain services
// once, hands them to the feature handlers, and mounts every feature
// router.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Stores
	users := userstore.New(db)
	partners := partnerstore.New(db)
	leads := leadstore.New(db)
	rules := rulestore.New(db)
	cohorts := cohortstore.New(db)
	members := memberstore.New(db)
	waitlist := waitliststore.New(db)
	settlements := settlementstore.New(db)
	intros := introstore.New(db)
	events := eventstore.New(db)
	sponsors := sponsorstore.New(db)
	promos := promostore.New(db)
	notifications := notifystore.New(db)
	outbox := outboxstore.New(db)
	settings := settingsstore.New(db)
	auditStore := audit.New(db)
	states := oauthstate.New(db)

	auditLogger := newAuditLogger(deps, appCfg, logger)

	// Domain services
	leadRouter := routing.NewRouter(leads, rules, partners, outbox, settings, auditLogger, logger)
	lc := lifecycle.NewService(cohorts, members, notifications, auditLogger, logger)
	capMgr := capacity.NewManager(cohorts, members, waitlist, users, notifications, outbox, settings, auditLogger, logger)

	r := chi.NewRouter()

	// Resolves the session cookie or bearer token into the request
	// context for every route.
	r.Use(auth.LoadUser)

	// Health check endpoint for load balancers and orchestrators
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))

	// Authentication
	r.Mount("/api/auth", authapifeature.Routes(authapifeature.NewHandler(users, auditLogger, logger)))
	r.Mount("/auth/google", authgooglefeature.Routes(authgooglefeature.NewHandler(
		users, states, auditLogger,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL,
		logger,
	)))

	// Lead capture and routing
	r.Mount("/api/leads", leadsfeature.Routes(leadsfeature.NewHandler(leads, leadRouter, auditLogger, logger)))
	r.Mount("/api/routing-rules", routingrulesfeature.Routes(routingrulesfeature.NewHandler(rules, partners, auditLogger, logger)))
	r.Mount("/api/partners", partnersfeature.Routes(partnersfeature.NewHandler(db, partners, leads, logger)))

	// Cohorts and settlements
	r.Mount("/api/cohorts", cohortsfeature.Routes(cohortsfeature.NewHandler(cohorts, lc, capMgr, auditLogger, logger)))
	r.Mount("/api/settlements", settlementsfeature.Routes(settlementsfeature.NewHandler(settlements, appCfg.KDMSharePercent, auditLogger, logger)))
	r.Mount("/api/introductions", introductionsfeature.Routes(introductionsfeature.NewHandler(intros, partners, users, logger)))

	// Content surfaces: public reads, admin CRUD
	eventsHandler := eventsfeature.NewHandler(events, logger)
	r.Mount("/api/events", eventsfeature.PublicRoutes(eventsHandler))
	r.Mount("/api/admin/events", eventsfeature.AdminRoutes(eventsHandler))

	sponsorsHandler := sponsorsfeature.NewHandler(sponsors, logger)
	r.Mount("/api/sponsors", sponsorsfeature.PublicRoutes(sponsorsHandler))
	r.Mount("/api/admin/sponsors", sponsorsfeature.AdminRoutes(sponsorsHandler))

	promosHandler := promocodesfeature.NewHandler(promos, logger)
	r.Mount("/api/promo-codes", promocodesfeature.CheckRoutes(promosHandler))
	r.Mount("/api/admin/promo-codes", promocodesfeature.AdminRoutes(promosHandler))

	// Self-service and admin tooling
	r.Mount("/api/notifications", notificationsfeature.Routes(notificationsfeature.NewHandler(notifications, logger)))
	r.Mount("/api/settings", settingsapifeature.Routes(settingsapifeature.NewHandler(settings, logger)))
	r.Mount("/api/audit", auditapifeature.Routes(auditapifeature.NewHandler(auditStore, users, logger)))

	// Scheduler endpoints
	r.Mount("/api/cron", cronfeature.Routes(cronfeature.NewHandler(
		lc, leads, cohorts, settings, users, outbox,
		appCfg.CronSecret, logger,
	)))

	return r, nil
}
