// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for CampusHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CAMPUSHUB_MONGO_URI, CAMPUSHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "campushub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "campushub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},

	// Session resolution
	{Name: "resolve_timeout", Default: "5s", Desc: "How long a gated request waits for its session to resolve"},
	{Name: "profile_fetch_timeout", Default: "5s", Desc: "Timeout for loading one profile"},
	{Name: "session_idle_timeout", Default: "2h", Desc: "Evict session resolvers idle longer than this"},
	{Name: "session_cleanup_interval", Default: "10m", Desc: "How often idle resolvers and expired OAuth states are swept"},

	// Access
	{Name: "allow_admin_signup", Default: false, Desc: "Allow signup to request the admin role"},
	{Name: "admin_email_heuristic", Default: false, Desc: "Legacy: treat emails containing 'admin' as administrators"},

	// Seed administrator
	{Name: "seed_admin_email", Default: "", Desc: "Email of an administrator to create or promote on startup"},
	{Name: "seed_admin_password", Default: "", Desc: "Password used when the seed administrator must be created"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public origin used for OAuth callbacks"},
	{Name: "site_name", Default: "Campus Hub", Desc: "Display name of the portal"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// CAMPUSHUB_* environment variables and flags, with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CAMPUSHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		ResolveTimeout:      appValues.Duration("resolve_timeout", 5*time.Second),
		ProfileFetchTimeout: appValues.Duration("profile_fetch_timeout", 5*time.Second),
		SessionIdleTimeout:  appValues.Duration("session_idle_timeout", 2*time.Hour),
		CleanupInterval:     appValues.Duration("session_cleanup_interval", 10*time.Minute),

		AllowAdminSignup:    appValues.Bool("allow_admin_signup"),
		AdminEmailHeuristic: appValues.Bool("admin_email_heuristic"),

		SeedAdminEmail:    appValues.String("seed_admin_email"),
		SeedAdminPassword: appValues.String("seed_admin_password"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		BaseURL:  appValues.String("base_url"),
		SiteName: appValues.String("site_name"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),
	}

	if appCfg.AdminEmailHeuristic {
		logger.Warn("admin email heuristic enabled; any email containing 'admin' is treated as an administrator")
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		return fmt.Errorf("google_client_id and google_client_secret must be set together")
	}
	if appCfg.SeedAdminPassword != "" && appCfg.SeedAdminEmail == "" {
		return fmt.Errorf("seed_admin_password requires seed_admin_email")
	}
	if appCfg.ResolveTimeout <= 0 || appCfg.ProfileFetchTimeout <= 0 {
		return fmt.Errorf("resolve_timeout and profile_fetch_timeout must be positive")
	}
	return nil
}
