// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// Store backends accepted by store_backend.
const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, log level and request limits.
// Everything churchroll needs on top of that lives here and is passed to
// every lifecycle hook.
type AppConfig struct {
	// Storage
	StoreBackend     string // "mongo" or "memory"
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: churchroll-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Browser origins allowed to call the JSON API. Empty disables CORS.
	CORSAllowedOrigins []string

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// Superadmin created on startup when no account has this email.
	SuperAdminEmail    string
	SuperAdminPassword string
	SuperAdminName     string

	// Handler timeouts; zero keeps the defaults in system/timeouts.
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration

	// Expose Prometheus metrics at /metrics.
	MetricsEnabled bool

	// How often idle rate-limiter buckets are dropped.
	RateLimitSweep time.Duration
}
