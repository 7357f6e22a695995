// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for KDMHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_key, etc.
//   - Environment variables: KDMHUB_MONGO_URI, KDMHUB_SESSION_KEY, etc.
//   - Command-line flags: --mongo_uri, --session_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "kdmhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "token_signing_key", Default: "dev-only-token-key-change-me-0123456789", Desc: "HMAC key for API bearer tokens"},
	{Name: "token_ttl", Default: "24h", Desc: "API bearer token lifetime (e.g., 24h, 90m)"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Base URL for OAuth callbacks and email links"},

	// Email delivery
	{Name: "sendgrid_key", Default: "", Desc: "SendGrid API key (empty routes mail to the log)"},
	{Name: "mail_from", Default: "noreply@kdmhub.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "KDMHub", Desc: "From display name"},
	{Name: "mail_subject_prefix", Default: "", Desc: "Prefix for outgoing email subjects"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Scheduler endpoints
	{Name: "cron_secret", Default: "", Desc: "Bearer secret for /api/cron endpoints (empty disables them)"},

	// Settlements
	{Name: "kdm_share_percent", Default: 60, Desc: "Default KDM share percent for settlements without an explicit split"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Background workers
	{Name: "sweep_interval", Default: "15m", Desc: "How often the cohort date sweep runs"},
	{Name: "dispatch_interval", Default: "30s", Desc: "How often the email outbox is drained"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, KDMHUB_* for app), and
// command-line flags, merging with precedence flags > env > files >
// defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "KDMHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:      appValues.String("session_key"),
		SessionDomain:   appValues.String("session_domain"),
		TokenSigningKey: appValues.String("token_signing_key"),
		TokenTTL:        appValues.Duration("token_ttl", 24*time.Hour),

		BaseURL: appValues.String("base_url"),

		SendGridKey:       appValues.String("sendgrid_key"),
		MailFrom:          appValues.String("mail_from"),
		MailFromName:      appValues.String("mail_from_name"),
		MailSubjectPrefix: appValues.String("mail_subject_prefix"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		CronSecret: appValues.String("cron_secret"),

		KDMSharePercent: appValues.Int("kdm_share_percent"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		SweepInterval:    appValues.Duration("sweep_interval", 15*time.Minute),
		DispatchInterval: appValues.Duration("dispatch_interval", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation before any
// backends are built.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.KDMSharePercent < 1 || appCfg.KDMSharePercent > 100 {
		return fmt.Errorf("kdm_share_percent must be in [1,100], got %d", appCfg.KDMSharePercent)
	}

	if coreCfg.Env == "prod" {
		if appCfg.SessionKey == "dev-only-change-me-please-0123456789ABCDEF" {
			return fmt.Errorf("session_key must be changed from its dev default in production")
		}
		if appCfg.TokenSigningKey == "dev-only-token-key-change-me-0123456789" {
			return fmt.Errorf("token_signing_key must be changed from its dev default in production")
		}
	}

	if appCfg.CronSecret == "" {
		logger.Warn("cron_secret is empty; /api/cron endpoints are disabled")
	}

	return nil
}
