// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig carries everything specific to FanZone: the MongoDB
// connection, the session cookie, password hashing, login throttling,
// login-record retention, audit destinations and database timeouts.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Upper bound on pooled connections
	MongoMinPoolSize uint64 // Connections kept warm

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: fanzone-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Password hashing
	BcryptCost  int // bcrypt work factor (4-31)
	HashWorkers int // Concurrent hash operations; 0 means GOMAXPROCS

	// Login throttling (per client IP)
	LoginRatePerMinute int
	LoginBurst         int
	TrustProxy         bool // Take the client IP from X-Forwarded-For/X-Real-IP

	// Login records
	LoginRecordRetention time.Duration // How long login records are kept
	LoginPruneInterval   time.Duration // How often expired records are deleted

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth    string
	AuditLogAccount string

	// Database timeouts (zero keeps the built-in defaults)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
}
