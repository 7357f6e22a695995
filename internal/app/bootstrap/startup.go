// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/lifecycle"
	"github.com/kdmlabs/kdmhub/internal/app/store/audit"
	cohortstore "github.com/kdmlabs/kdmhub/internal/app/store/cohorts"
	memberstore "github.com/kdmlabs/kdmhub/internal/app/store/members"
	notifystore "github.com/kdmlabs/kdmhub/internal/app/store/notifications"
	outboxstore "github.com/kdmlabs/kdmhub/internal/app/store/outbox"
	"github.com/kdmlabs/kdmhub/internal/app/system/auditlog"
	"github.com/kdmlabs/kdmhub/internal/app/system/auth"
	"github.com/kdmlabs/kdmhub/internal/app/system/mailer"
	"github.com/kdmlabs/kdmhub/internal/app/system/workers"
)

// Background workers started here and stopped in Shutdown.
var (
	sweepWorker    *workers.CohortSweep
	dispatchWorker *workers.OutboxDispatch
)

// newSender picks the mail transport: SendGrid when a key is configured,
// the log sender otherwise.
func newSender(appCfg AppConfig, logger *zap.Logger) mailer.Sender {
	if appCfg.SendGridKey != "" {
		return mailer.NewSendGrid(appCfg.SendGridKey, appCfg.MailFromName, appCfg.MailFrom, appCfg.MailSubjectPrefix)
	}
	logger.Info("no SendGrid key configured; outbox mail goes to the log")
	return &mailer.LogSender{Logger: logger}
}

// newAuditLogger builds the shared audit logger from config.
func newAuditLogger(deps DBDeps, appCfg AppConfig, logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
}

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// It initializes the session store and token signer and starts the
// background workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionDomain, secure, logger); err != nil {
		return err
	}
	if err := auth.InitTokens(appCfg.TokenSigningKey, appCfg.TokenTTL); err != nil {
		return err
	}

	db := deps.MongoDatabase
	auditLogger := newAuditLogger(deps, appCfg, logger)

	lc := lifecycle.NewService(
		cohortstore.New(db),
		memberstore.New(db),
		notifystore.New(db),
		auditLogger,
		logger,
	)
	sweepWorker = workers.NewCohortSweep(lc, logger, appCfg.SweepInterval)
	sweepWorker.Start()

	dispatchWorker = workers.NewOutboxDispatch(
		outboxstore.New(db),
		newSender(appCfg, logger),
		logger,
		appCfg.DispatchInterval,
	)
	dispatchWorker.Start()

	return nil
}
