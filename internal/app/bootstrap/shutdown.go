// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background workers, then disconnects MongoDB.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if rt := deps.Runtime; rt != nil {
		if rt.Pruner != nil {
			rt.Pruner.Stop()
		}
		if rt.Limiter != nil {
			rt.Limiter.Close()
		}
	}

	if deps.FanZoneMongoClient != nil {
		logger.Info("disconnecting FanZone MongoDB client")
		if err := deps.FanZoneMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
