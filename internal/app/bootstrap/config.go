// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/stratafight/internal/app/system/auth"
	"github.com/dalemusser/stratafight/internal/app/system/normalize"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables (STRATAFIGHT_MONGO_URI, ...).
const EnvVarPrefix = "STRATAFIGHT"

// devJWTSecret is only acceptable outside prod; ValidateConfig rejects it there.
const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: STRATAFIGHT_MONGO_URI, STRATAFIGHT_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratafight", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Bearer tokens
	{Name: "jwt_secret", Default: devJWTSecret, Desc: "JWT HMAC secret (32+ random chars in production)"},
	{Name: "jwt_issuer", Default: "stratafight", Desc: "JWT issuer claim"},
	{Name: "jwt_ttl", Default: "72h", Desc: "Access token lifetime (e.g., 72h, 30m)"},

	// Rate limiting
	{Name: "rate_limit_enabled", Default: true, Desc: "Enable sign-in rate limiting"},
	{Name: "rate_limit_signin_attempts", Default: 5, Desc: "Max failed sign-in attempts before lockout"},
	{Name: "rate_limit_signin_window", Default: "15m", Desc: "Time window for counting failed attempts"},
	{Name: "rate_limit_signin_lockout", Default: "15m", Desc: "Lockout duration after exceeding limit"},

	// Audit logging
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_challenge", Default: "all", Desc: "Challenge event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "api_allowed_origins", Default: "", Desc: "Comma-separated origins allowed to call /api (blank allows any)"},

	{Name: "reconcile_interval", Default: "1h", Desc: "Challenge back-reference reconcile interval"},

	// API stats
	{Name: "api_stats_enabled", Default: true, Desc: "Record per-group API request statistics"},
	{Name: "api_stats_bucket", Default: "1h", Desc: "API stats bucket duration (e.g., '1m', '15m', '1h')"},
	{Name: "api_stats_retention", Default: "720h", Desc: "How long API stats buckets are kept"},

	// Pagination
	{Name: "default_page_limit", Default: 20, Desc: "Default page size for list endpoints"},
	{Name: "max_page_limit", Default: 100, Desc: "Maximum page size for list endpoints"},

	// Timeouts
	{Name: "ping_timeout", Default: "2s", Desc: "Health check database ping timeout"},
	{Name: "request_timeout", Default: "30s", Desc: "Per-request timeout"},
	{Name: "job_timeout", Default: "5m", Desc: "Timeout for a single background job run"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env and config files,
// WAFFLE_* and STRATAFIGHT_* environment variables and flags, merged
// with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTIssuer: appValues.String("jwt_issuer"),
		JWTTTL:    appValues.Duration("jwt_ttl", auth.DefaultTokenTTL),

		RateLimitEnabled:        appValues.Bool("rate_limit_enabled"),
		RateLimitSigninAttempts: appValues.Int("rate_limit_signin_attempts"),
		RateLimitSigninWindow:   appValues.Duration("rate_limit_signin_window", 15*time.Minute),
		RateLimitSigninLockout:  appValues.Duration("rate_limit_signin_lockout", 15*time.Minute),

		AuditLogAuth:      appValues.String("audit_log_auth"),
		AuditLogChallenge: appValues.String("audit_log_challenge"),

		APIAllowedOrigins: normalize.List(appValues.String("api_allowed_origins")),

		ReconcileInterval: appValues.Duration("reconcile_interval", time.Hour),

		APIStatsEnabled:   appValues.Bool("api_stats_enabled"),
		APIStatsBucket:    appValues.Duration("api_stats_bucket", time.Hour),
		APIStatsRetention: appValues.Duration("api_stats_retention", 30*24*time.Hour),

		DefaultPageLimit: int64(appValues.Int("default_page_limit")),
		MaxPageLimit:     int64(appValues.Int("max_page_limit")),

		PingTimeout:    appValues.Duration("ping_timeout", 2*time.Second),
		RequestTimeout: appValues.Duration("request_timeout", 30*time.Second),
		JobTimeout:     appValues.Duration("job_timeout", 5*time.Minute),
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
	return validateAppConfig(coreCfg.Env, appCfg)
}

// validateAppConfig holds the checks that do not need WAFFLE types.
func validateAppConfig(env string, appCfg AppConfig) error {
	var problems []error

	if appCfg.MongoDatabase == "" {
		problems = append(problems, errors.New("mongo_database is required"))
	}
	if env == "prod" && (len(appCfg.JWTSecret) < 32 || appCfg.JWTSecret == devJWTSecret) {
		problems = append(problems, errors.New("jwt_secret must be 32+ random characters in prod"))
	}
	if appCfg.JWTTTL <= 0 {
		problems = append(problems, errors.New("jwt_ttl must be positive"))
	}
	if appCfg.RateLimitEnabled && appCfg.RateLimitSigninAttempts < 1 {
		problems = append(problems, errors.New("rate_limit_signin_attempts must be at least 1"))
	}
	if appCfg.DefaultPageLimit < 1 || appCfg.MaxPageLimit < appCfg.DefaultPageLimit {
		problems = append(problems, fmt.Errorf("page limits invalid: default %d, max %d", appCfg.DefaultPageLimit, appCfg.MaxPageLimit))
	}
	if appCfg.APIStatsEnabled && appCfg.APIStatsBucket < time.Minute {
		problems = append(problems, errors.New("api_stats_bucket must be at least 1m"))
	}

	return errors.Join(problems...)
}
