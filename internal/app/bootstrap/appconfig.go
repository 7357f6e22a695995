// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// framework-level settings like ports, TLS, and logging; AppConfig is
// everything specific to KDMHub.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session and API token configuration
	SessionKey      string // Secret key for signing session cookies (must be strong in production)
	SessionDomain   string // Cookie domain (blank means current host)
	TokenSigningKey string // HMAC key for bearer tokens issued at login
	TokenTTL        time.Duration

	// Base URL for OAuth callbacks and email links
	BaseURL string // e.g., "https://kdmhub.com" or "http://localhost:8080"

	// Email delivery; an empty SendGrid key routes outbox mail to the log
	SendGridKey       string
	MailFrom          string // From email address (e.g., noreply@kdmhub.com)
	MailFromName      string // From display name
	MailSubjectPrefix string // Prepended to every outgoing subject (e.g., "[KDMHub] ")

	// Google OAuth configuration
	GoogleClientID     string
	GoogleClientSecret string

	// Shared secret for the external-scheduler endpoints; empty disables them
	CronSecret string

	// Default KDM share for settlements that do not name a split
	KDMSharePercent int

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// Background worker cadence
	SweepInterval    time.Duration
	DispatchInterval time.Duration
}
