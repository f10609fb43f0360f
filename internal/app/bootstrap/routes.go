// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authapifeature "github.com/dalemusser/stratafight/internal/app/features/authapi"
	challengesfeature "github.com/dalemusser/stratafight/internal/app/features/challenges"
	errorsfeature "github.com/dalemusser/stratafight/internal/app/features/errors"
	fightersfeature "github.com/dalemusser/stratafight/internal/app/features/fighters"
	healthfeature "github.com/dalemusser/stratafight/internal/app/features/health"
	usersfeature "github.com/dalemusser/stratafight/internal/app/features/users"
	apistatsstore "github.com/dalemusser/stratafight/internal/app/store/apistats"
	"github.com/dalemusser/stratafight/internal/app/store/audit"
	"github.com/dalemusser/stratafight/internal/app/store/ratelimit"
	"github.com/dalemusser/stratafight/internal/app/system/accounts"
	"github.com/dalemusser/stratafight/internal/app/system/apicors"
	"github.com/dalemusser/stratafight/internal/app/system/apistats"
	"github.com/dalemusser/stratafight/internal/app/system/auditlog"
	"github.com/dalemusser/stratafight/internal/app/system/auth"
	"github.com/dalemusser/stratafight/internal/app/system/challengeflow"
	"github.com/dalemusser/stratafight/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed.
//
// Route layout:
//   - /api/auth        public  (signup, signin)
//   - /api/fighters    public  (directory)
//   - /api/users       bearer  (account, fighter profile, favorites)
//   - /api/challenges  bearer  (challenge workflow)
//   - /health, /ready, /readyz, /livez
//
// Everything under /api uses permissive CORS (apicors) since bearer tokens
// are not sent automatically by browsers. Unmatched routes and wrong
// methods answer with JSON envelopes.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svc, err := newServices(deps, appCfg, coreCfg.Env == "prod", logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeouts.Request()))

	// WAFFLE CORS and security headers (configured via WAFFLE core config).
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Set before Route/Mount so sub-routers inherit them.
	errorsHandler := errorsfeature.NewHandler(logger)
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, taskRunner, svc.stats, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	r.Route("/api", func(r chi.Router) {
		mountAPI(r, svc, appCfg.APIAllowedOrigins, logger)
	})

	return r, nil
}

// services are the long-lived objects the API handlers share.
type services struct {
	tokens      *auth.TokenIssuer
	accounts    *accounts.Service
	workflow    *challengeflow.Workflow
	auditLogger *auditlog.Logger
	stats       *apistatsstore.Store // nil when stats are disabled
	recorder    *apistats.Recorder   // nil when stats are disabled
}

func newServices(deps DBDeps, appCfg AppConfig, prod bool, logger *zap.Logger) (*services, error) {
	db := deps.MongoDatabase

	// Weak secrets are fatal in prod, a warning elsewhere.
	tokens, err := auth.NewTokenIssuer(appCfg.JWTSecret, appCfg.JWTIssuer, appCfg.JWTTTL, prod, logger)
	if err != nil {
		logger.Error("token issuer init failed", zap.Error(err))
		return nil, err
	}

	// Rate limiting is optional; a nil store disables it.
	var limiter *ratelimit.Store
	if appCfg.RateLimitEnabled {
		limiter = ratelimit.New(
			db,
			appCfg.RateLimitSigninAttempts,
			appCfg.RateLimitSigninWindow,
			appCfg.RateLimitSigninLockout,
		)
	}

	svc := &services{
		tokens:   tokens,
		accounts: accounts.New(db, tokens, limiter, logger),
		workflow: challengeflow.New(db, logger),
		auditLogger: auditlog.New(audit.New(db), logger, auditlog.Config{
			Auth:      appCfg.AuditLogAuth,
			Challenge: appCfg.AuditLogChallenge,
		}),
	}
	svc.accounts.SetPageLimits(appCfg.DefaultPageLimit, appCfg.MaxPageLimit)
	svc.workflow.SetPageLimits(appCfg.DefaultPageLimit, appCfg.MaxPageLimit)

	if appCfg.APIStatsEnabled {
		svc.stats = apistatsstore.New(db)
		svc.recorder = apistats.NewRecorder(svc.stats, logger, appCfg.APIStatsBucket)
	}
	return svc, nil
}

// mountAPI mounts the feature routers on the /api router.
func mountAPI(r chi.Router, svc *services, origins []string, logger *zap.Logger) {
	r.Use(apicors.Middleware(origins))

	authHandler := authapifeature.NewHandler(svc.accounts, svc.auditLogger, logger)
	fightersHandler := fightersfeature.NewHandler(svc.accounts, logger)
	usersHandler := usersfeature.NewHandler(svc.accounts, svc.auditLogger, logger)
	challengesHandler := challengesfeature.NewHandler(svc.workflow, svc.auditLogger, logger)

	r.With(apistats.Middleware(svc.recorder, apistatsstore.GroupAuth)).
		Mount("/auth", authapifeature.Routes(authHandler))
	r.With(apistats.Middleware(svc.recorder, apistatsstore.GroupFighters)).
		Mount("/fighters", fightersfeature.Routes(fightersHandler))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireBearer(svc.tokens, logger))

		r.With(apistats.Middleware(svc.recorder, apistatsstore.GroupUsers)).
			Mount("/users", usersfeature.Routes(usersHandler))
		r.With(apistats.Middleware(svc.recorder, apistatsstore.GroupChallenges)).
			Mount("/challenges", challengesfeature.Routes(challengesHandler))
	})
}
