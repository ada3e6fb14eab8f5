// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/yar/internal/app/store/audit"
	"github.com/dalemusser/yar/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/yar/internal/app/store/users"
	"github.com/dalemusser/yar/internal/app/system/auditlog"
	"github.com/dalemusser/yar/internal/app/system/indexes"
	"github.com/dalemusser/yar/internal/app/system/validators"
	"github.com/dalemusser/yar/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// ConnectDB opens the MongoDB client and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize).
		SetAppName("yar")

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping MongoDB: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize),
		zap.Uint64("min_pool_size", appCfg.MongoMinPoolSize))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema installs collection validators and indexes, then migrates
// legacy user roles. Every step is idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	if err := validators.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("collection validators: %w", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("indexes: %w", err)
	}

	auditStore := audit.New(db)
	if err := auditStore.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	if err := oauthstate.New(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("oauth state indexes: %w", err)
	}

	n, err := userstore.New(db).MigrateLegacyRoles(ctx)
	if err != nil {
		return fmt.Errorf("migrate legacy roles: %w", err)
	}
	if n > 0 {
		logger.Info("migrated legacy user roles", zap.Int64("count", n))
		auditlog.New(auditStore, logger, auditConfig(appCfg)).
			RolesMigrated(ctx, n, models.RoleDepartmentHead, models.RoleFaculty)
	}
	return nil
}

func auditConfig(appCfg AppConfig) auditlog.Config {
	return auditlog.Config{Auth: appCfg.AuditLogAuth, Admin: appCfg.AuditLogAdmin}
}
