// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, log level, env).
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Access tokens
	JWTSecret string        // HS256 signing secret (must be strong in production)
	JWTTTL    time.Duration // access token lifetime

	// Accounts
	EmailDomain string // signup email defaults to <net_id>@EmailDomain
	AdminEmail  string // promoted to admin at startup and at signup

	// Browser-facing URLs
	CORSAllowedOrigins []string // front-end origins allowed to call the API
	FrontendURL        string   // where the ORCID callback sends the browser
	BaseURL            string   // public URL of this API, used for the ORCID redirect URI

	// ORCID OAuth configuration
	OrcidClientID     string
	OrcidClientSecret string
	OrcidSandbox      bool // use sandbox.orcid.org

	// Audit logging
	AuditLogAuth  string // "all", "db", "log", or "off"
	AuditLogAdmin string // "all", "db", "log", or "off"

	// Login throttling
	LoginRateLimit  int           // attempts per window from one IP
	LoginRateWindow time.Duration // window length

	// Handler deadlines; zero keeps the timeouts package default
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
