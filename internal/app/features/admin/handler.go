// internal/app/features/admin/handler.go
package admin

import (
	"github.com/dalemusser/yar/internal/app/assembly"
	uierrors "github.com/dalemusser/yar/internal/app/features/errors"
	auditstore "github.com/dalemusser/yar/internal/app/store/audit"
	"github.com/dalemusser/yar/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the admin review and user management endpoints.
type Handler struct {
	Svc      *assembly.Service
	Audit    *auditstore.Store
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:      assembly.NewFromDB(db, logger),
		Audit:    auditstore.New(db),
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
	}
}
