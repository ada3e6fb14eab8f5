// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/yar/internal/app/system/inputval"
	"go.uber.org/zap"
)

const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for YAR.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: YAR_MONGO_URI, YAR_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "yar", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Access tokens
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "JWT signing secret (must be strong in production)"},
	{Name: "jwt_ttl", Default: "24h", Desc: "Access token lifetime (e.g., 24h, 90m)"},

	// Accounts
	{Name: "email_domain", Default: "university.edu", Desc: "Domain used for default signup emails"},
	{Name: "admin_email", Default: "", Desc: "Email of the account promoted to admin on startup"},

	// URLs
	{Name: "cors_allowed_origins", Default: "http://localhost:3000", Desc: "Comma-separated front-end origins allowed by CORS"},
	{Name: "frontend_url", Default: "http://localhost:3000", Desc: "Front-end base URL for post-OAuth redirects"},
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL of this API"},

	// ORCID OAuth configuration
	{Name: "orcid_client_id", Default: "", Desc: "ORCID OAuth2 client ID"},
	{Name: "orcid_client_secret", Default: "", Desc: "ORCID OAuth2 client secret"},
	{Name: "orcid_sandbox", Default: false, Desc: "Use the ORCID sandbox"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Login throttling
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts allowed per IP per window"},
	{Name: "login_rate_window", Default: "1m", Desc: "Login rate limit window"},

	// Handler deadlines (empty keeps the built-in default)
	{Name: "timeout_ping", Default: "", Desc: "Health check timeout (e.g., 2s)"},
	{Name: "timeout_short", Default: "", Desc: "Single-document operation timeout (e.g., 5s)"},
	{Name: "timeout_medium", Default: "", Desc: "List and upsert timeout (e.g., 10s)"},
	{Name: "timeout_long", Default: "", Desc: "Cascade and summary timeout (e.g., 30s)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges with precedence
// flags > env > files > defaults. App keys use the YAR_ env prefix.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "YAR", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTTTL:    appValues.Duration("jwt_ttl", 24*time.Hour),

		EmailDomain: strings.TrimPrefix(strings.TrimSpace(appValues.String("email_domain")), "@"),
		AdminEmail:  strings.TrimSpace(appValues.String("admin_email")),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),
		FrontendURL:        appValues.String("frontend_url"),
		BaseURL:            appValues.String("base_url"),

		OrcidClientID:     appValues.String("orcid_client_id"),
		OrcidClientSecret: appValues.String("orcid_client_secret"),
		OrcidSandbox:      appValues.Bool("orcid_sandbox"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		LoginRateLimit:  appValues.Int("login_rate_limit"),
		LoginRateWindow: appValues.Duration("login_rate_window", time.Minute),

		TimeoutPing:   appValues.Duration("timeout_ping", 0),
		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),
	}

	return coreCfg, appCfg, nil
}

// splitList parses a comma-separated setting, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must be set")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}

	if appCfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret must be set")
	}
	if coreCfg.Env == "prod" {
		if appCfg.JWTSecret == devJWTSecret {
			return fmt.Errorf("jwt_secret must be changed from the development default in prod")
		}
		if len(appCfg.JWTSecret) < 32 {
			return fmt.Errorf("jwt_secret must be at least 32 characters in prod")
		}
	}
	if appCfg.JWTTTL <= 0 {
		return fmt.Errorf("jwt_ttl must be positive")
	}

	for _, v := range []struct{ key, val string }{
		{"audit_log_auth", appCfg.AuditLogAuth},
		{"audit_log_admin", appCfg.AuditLogAdmin},
	} {
		switch v.val {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", v.key, v.val)
		}
	}

	if appCfg.LoginRateLimit < 1 {
		return fmt.Errorf("login_rate_limit must be at least 1")
	}
	for _, v := range []struct {
		key string
		val time.Duration
	}{
		{"timeout_ping", appCfg.TimeoutPing},
		{"timeout_short", appCfg.TimeoutShort},
		{"timeout_medium", appCfg.TimeoutMedium},
		{"timeout_long", appCfg.TimeoutLong},
	} {
		if v.val < 0 {
			return fmt.Errorf("%s must not be negative", v.key)
		}
	}
	if appCfg.AdminEmail != "" && !inputval.IsValidEmail(appCfg.AdminEmail) {
		return fmt.Errorf("admin_email %q is not a valid email address", appCfg.AdminEmail)
	}
	if (appCfg.OrcidClientID == "") != (appCfg.OrcidClientSecret == "") {
		logger.Warn("ORCID linking disabled: set both orcid_client_id and orcid_client_secret")
	}

	return nil
}
