// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS); everything specific
// to the campus portal lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name (default: campushub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Session resolution
	ResolveTimeout      time.Duration // how long a gated request waits for its session to resolve
	ProfileFetchTimeout time.Duration // bound on one profile load
	SessionIdleTimeout  time.Duration // resolvers untouched this long are evicted
	CleanupInterval     time.Duration // how often the cleanup worker runs

	// Access
	AllowAdminSignup    bool // signup may request the admin role
	AdminEmailHeuristic bool // legacy: emails containing "admin" count as administrators

	// Seed administrator, created or promoted on startup
	SeedAdminEmail    string
	SeedAdminPassword string

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// Public origin, used for the OAuth callback (e.g., "https://campus.example.edu")
	BaseURL  string
	SiteName string

	// Audit logging modes: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c AppConfig) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
