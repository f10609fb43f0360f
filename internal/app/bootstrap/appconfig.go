// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// Values come from flags, STRATAFIGHT_* environment variables, config files
// or defaults (see LoadConfig). WAFFLE's CoreConfig covers the framework
// side: ports, TLS, log level, CORS and security headers.
//
// AppConfig is built once at startup and handed to constructors; nothing
// below the bootstrap package reads the environment.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Bearer token configuration
	JWTSecret string        // HMAC signing key (32+ random chars in production)
	JWTIssuer string        // iss claim; verified on parse when set
	JWTTTL    time.Duration // Token lifetime (default: 72h)

	// Sign-in rate limiting
	RateLimitEnabled        bool          // Lock out usernames after repeated failures (default: true)
	RateLimitSigninAttempts int           // Failed attempts before lockout (default: 5)
	RateLimitSigninWindow   time.Duration // Window for counting failures (default: 15m)
	RateLimitSigninLockout  time.Duration // Lockout duration (default: 15m)

	// Audit logging
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	AuditLogAuth      string // signup, signin, become-fighter
	AuditLogChallenge string // challenge lifecycle

	// CORS for /api. Empty allows any origin.
	APIAllowedOrigins []string

	// Background jobs
	ReconcileInterval time.Duration // Challenge back-reference reconcile interval (default: 1h)

	// API request statistics
	APIStatsEnabled   bool          // Record per-group request stats (default: true)
	APIStatsBucket    time.Duration // Aggregation window (default: 1h)
	APIStatsRetention time.Duration // Buckets older than this are pruned (default: 720h)

	// Pagination
	DefaultPageLimit int64 // Page size when the client sends none (default: 20)
	MaxPageLimit     int64 // Upper bound on client page size (default: 100)

	// Timeouts
	PingTimeout    time.Duration // Health check ping (default: 2s)
	RequestTimeout time.Duration // Per-request deadline (default: 30s)
	JobTimeout     time.Duration // Single background job run (default: 5m)
}
