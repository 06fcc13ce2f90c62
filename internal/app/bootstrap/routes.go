// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	errorsfeature "github.com/dalemusser/fanzone/internal/app/features/errors"
	followsfeature "github.com/dalemusser/fanzone/internal/app/features/follows"
	healthfeature "github.com/dalemusser/fanzone/internal/app/features/health"
	loginfeature "github.com/dalemusser/fanzone/internal/app/features/login"
	logoutfeature "github.com/dalemusser/fanzone/internal/app/features/logout"
	signupfeature "github.com/dalemusser/fanzone/internal/app/features/signup"
	userinfofeature "github.com/dalemusser/fanzone/internal/app/features/userinfo"
	"github.com/dalemusser/fanzone/internal/app/system/authutil"
	"github.com/dalemusser/fanzone/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// FanZone is a JSON API: signup, login and logout at the top level, and the
// signed-in account (profile, follows, reminders, activity) under /api/user.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if deps.Runtime == nil || deps.Runtime.Accounts == nil {
		return nil, fmt.Errorf("build handler: startup has not run")
	}
	return newRouter(deps.Runtime, healthfeature.NewHandler(deps.FanZoneMongoClient, logger), logger), nil
}

// newRouter mounts every feature on a fresh chi router.
func newRouter(rt *Runtime, healthHandler *healthfeature.Handler, logger *zap.Logger) chi.Router {
	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)
	sessionMgr := rt.SessionMgr
	starter := authutil.NewSessionStarter(sessionMgr, rt.Logins, logger)

	r := chi.NewRouter()
	if rt.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", metrics.Handler())

	// Authentication
	signupHandler := signupfeature.NewHandler(rt.Accounts, starter, rt.AuditLog, errLog, logger)
	r.Mount("/api/signup", signupfeature.Routes(signupHandler, rt.Limiter))

	loginHandler := loginfeature.NewHandler(rt.Accounts, starter, rt.Limiter, rt.AuditLog, errLog, logger)
	r.Mount("/api/login", loginfeature.Routes(loginHandler, rt.Limiter))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, rt.Logins, rt.AuditLog, errLog, logger)
	r.Mount("/api/logout", logoutfeature.Routes(logoutHandler))

	// Signed-in account: identity, profile, activity, then follows and
	// reminders registered onto the same protected router.
	userHandler := userinfofeature.NewHandler(rt.Accounts, sessionMgr, rt.Logins, rt.Audit, rt.AuditLog, errLog, logger)
	userRouter := userinfofeature.Routes(userHandler, sessionMgr)

	followsHandler := followsfeature.NewHandler(rt.Accounts, errLog, logger)
	followsfeature.Register(userRouter, followsHandler)

	r.Mount("/api/user", userRouter)

	return r
}
