// internal/app/features/reports/handler.go
package reports

import (
	"github.com/dalemusser/yar/internal/app/assembly"
	uierrors "github.com/dalemusser/yar/internal/app/features/errors"
	"github.com/dalemusser/yar/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the report endpoints.
type Handler struct {
	Svc      *assembly.Service
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
	AuditLog *auditlog.Logger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return NewHandlerWithService(assembly.NewFromDB(db, logger), errLog, audit, logger)
}

// NewHandlerWithService builds a Handler over an existing service.
func NewHandlerWithService(svc *assembly.Service, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:      svc,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
	}
}
