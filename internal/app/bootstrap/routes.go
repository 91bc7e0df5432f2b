// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/churchroll/internal/app/features/auditlog"
	churchesfeature "github.com/dalemusser/churchroll/internal/app/features/churches"
	errorsfeature "github.com/dalemusser/churchroll/internal/app/features/errors"
	healthfeature "github.com/dalemusser/churchroll/internal/app/features/health"
	loginfeature "github.com/dalemusser/churchroll/internal/app/features/login"
	logoutfeature "github.com/dalemusser/churchroll/internal/app/features/logout"
	membersfeature "github.com/dalemusser/churchroll/internal/app/features/members"
	reportsfeature "github.com/dalemusser/churchroll/internal/app/features/reports"
	systemusersfeature "github.com/dalemusser/churchroll/internal/app/features/systemusers"
	transfersfeature "github.com/dalemusser/churchroll/internal/app/features/transfers"
	"github.com/dalemusser/churchroll/internal/app/policy/churchscope"
	userstore "github.com/dalemusser/churchroll/internal/app/store/users"
	"github.com/dalemusser/churchroll/internal/app/system/auditlog"
	"github.com/dalemusser/churchroll/internal/app/system/auth"
	"github.com/dalemusser/churchroll/internal/app/system/metrics"
	"github.com/dalemusser/churchroll/internal/app/system/ratelimit"
	"github.com/dalemusser/churchroll/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Every feature receives the same
// store.Backend, so the memory and MongoDB backends serve identical routes.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser re-reads the user on each request so deactivation and
	// territory changes take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.Backend.Users))

	var m *metrics.Metrics
	if appCfg.MetricsEnabled {
		m = metrics.New()
	}

	limiter := ratelimit.NewLoginLimiter()
	if deps.Tasks != nil && appCfg.RateLimitSweep > 0 {
		deps.Tasks.Start(tasks.RateLimitSweepJob(limiter, logger, appCfg.RateLimitSweep))
	}

	return newRouter(appCfg, deps, sessionMgr, limiter, m, logger), nil
}

func newRouter(appCfg AppConfig, deps DBDeps, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, m *metrics.Metrics, logger *zap.Logger) chi.Router {
	be := deps.Backend
	errLog := errorsfeature.NewErrorLogger(logger)
	audit := auditlog.New(be.Audit, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
	scopes := churchscope.NewResolver(be.Churches)

	r := chi.NewRouter()
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	if len(appCfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   appCfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", auditlog.RequestIDHeader},
			ExposedHeaders:   []string{auditlog.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(m.Middleware)
	r.Use(auditlog.Middleware)

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	backendName := BackendMongo
	if deps.MongoClient == nil {
		backendName = BackendMemory
	}
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(be.Ping, backendName, logger)))
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	// Authentication
	loginHandler := loginfeature.NewHandler(be.Users, sessionMgr, limiter, audit, errLog, logger)
	loginHandler.Metrics = m
	r.Mount("/login", loginfeature.Routes(loginHandler))
	r.Mount("/me", loginfeature.MeRoutes(loginHandler, sessionMgr))
	r.Mount("/logout", logoutfeature.Routes(logoutfeature.NewHandler(sessionMgr, audit, logger)))

	// Church records
	r.Mount("/churches", churchesfeature.Routes(churchesfeature.NewHandler(be, scopes, errLog, audit, logger), sessionMgr))
	r.Mount("/members", membersfeature.Routes(membersfeature.NewHandler(be, scopes, errLog, audit, logger), sessionMgr))

	wf := transfersfeature.NewWorkflow(be, scopes, audit, logger)
	transfersHandler := transfersfeature.NewHandler(wf, errLog, logger)
	transfersHandler.Metrics = m
	r.Mount("/transfers", transfersfeature.Routes(transfersHandler, sessionMgr))

	r.Mount("/reports", reportsfeature.Routes(reportsfeature.NewHandler(be, scopes, errLog, audit, logger), sessionMgr))

	// Administration
	r.Mount("/users", systemusersfeature.Routes(systemusersfeature.NewHandler(be, errLog, audit, logger), sessionMgr))
	r.Mount("/audit", auditlogfeature.Routes(auditlogfeature.NewHandler(be, errLog, logger), sessionMgr))

	return r
}
