// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	userstore "github.com/dalemusser/yar/internal/app/store/users"
	"github.com/dalemusser/yar/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.Configure(timeouts.Config{
		Ping:   appCfg.TimeoutPing,
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	}); n > 0 {
		cur := timeouts.Current()
		logger.Info("operation timeouts configured",
			zap.Duration("ping", cur.Ping),
			zap.Duration("short", cur.Short),
			zap.Duration("medium", cur.Medium),
			zap.Duration("long", cur.Long))
	}
	return ensureAdmin(ctx, deps, appCfg.AdminEmail, logger)
}

// ensureAdmin promotes the configured admin account. An account that does
// not exist yet is promoted when it signs up.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	if email == "" {
		return nil
	}
	promoted, err := userstore.New(deps.MongoDatabase).PromoteByEmail(ctx, email)
	if err != nil {
		logger.Error("admin promotion failed", zap.Error(err), zap.String("email", email))
		return err
	}
	if promoted {
		logger.Info("promoted configured admin", zap.String("email", email))
	} else {
		logger.Info("configured admin not promoted; account missing or already admin", zap.String("email", email))
	}
	return nil
}
