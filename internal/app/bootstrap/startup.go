// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/fanzone/internal/app/store/audit"
	"github.com/dalemusser/fanzone/internal/app/store/logins"
	userstore "github.com/dalemusser/fanzone/internal/app/store/users"
	"github.com/dalemusser/fanzone/internal/app/system/accounts"
	"github.com/dalemusser/fanzone/internal/app/system/auditlog"
	"github.com/dalemusser/fanzone/internal/app/system/auth"
	"github.com/dalemusser/fanzone/internal/app/system/passwords"
	"github.com/dalemusser/fanzone/internal/app/system/ratelimit"
	"github.com/dalemusser/fanzone/internal/app/system/timeouts"
	"github.com/dalemusser/fanzone/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Runtime is the set of long-lived services shared by the HTTP handlers.
type Runtime struct {
	Accounts   *accounts.Service
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Logins     *logins.Store
	Audit      *audit.Store
	AuditLog   *auditlog.Logger
	Pruner     *workers.LoginPruner

	// TrustProxy enables chi's RealIP so rate limits and audit records see
	// the address the proxy reports.
	TrustProxy bool
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// the account services, session manager and login limiter, and starts the
// login-record pruner.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Runtime == nil {
		return fmt.Errorf("startup: runtime not allocated")
	}

	rt, err := newRuntime(coreCfg, appCfg, deps, logger)
	if err != nil {
		return err
	}
	*deps.Runtime = *rt

	deps.Runtime.Pruner.Start()
	return nil
}

// newRuntime wires the services without starting background work.
func newRuntime(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*Runtime, error) {
	db := deps.FanZoneMongoDatabase

	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
	})
	cur := timeouts.Current()
	logger.Info("database timeouts configured",
		zap.Duration("ping", cur.Ping),
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium),
	)

	hasher, err := passwords.NewHasher(appCfg.BcryptCost, appCfg.HashWorkers)
	if err != nil {
		logger.Error("password hasher init failed", zap.Error(err))
		return nil, err
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fetch fresh user data on each request so deactivation takes effect
	// immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db, logger))

	loginStore := logins.New(db)
	auditStore := audit.New(db)

	return &Runtime{
		Accounts:   accounts.NewService(userstore.New(db), hasher, logger),
		SessionMgr: sessionMgr,
		Limiter:    ratelimit.NewLoginLimiter(appCfg.LoginRatePerMinute, appCfg.LoginBurst, logger),
		Logins:     loginStore,
		Audit:      auditStore,
		AuditLog: auditlog.New(auditStore, logger, auditlog.Config{
			Auth:    appCfg.AuditLogAuth,
			Account: appCfg.AuditLogAccount,
		}),
		Pruner:     workers.NewLoginPruner(loginStore, logger, appCfg.LoginPruneInterval, appCfg.LoginRecordRetention),
		TrustProxy: appCfg.TrustProxy,
	}, nil
}
