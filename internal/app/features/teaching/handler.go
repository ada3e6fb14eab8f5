// internal/app/features/teaching/handler.go
package teaching

import (
	"net/http"

	"github.com/dalemusser/yar/internal/app/assembly"
	uierrors "github.com/dalemusser/yar/internal/app/features/errors"
	"github.com/dalemusser/yar/internal/app/system/authz"
	"github.com/dalemusser/yar/internal/app/system/formutil"
	"github.com/dalemusser/yar/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the teaching section of a report.
type Handler struct {
	Svc    *assembly.Service
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:    assembly.NewFromDB(db, logger),
		Log:    logger,
		ErrLog: errLog,
	}
}

// Get handles GET /teaching/{reportId}. A report without a teaching
// section yields null.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	reportID, err := formutil.ObjectIDParam(r, "reportId")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get teaching section")
	defer cancel()

	sec, err := h.Svc.GetTeaching(ctx, actor, reportID)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, sec)
}

// Save handles POST /teaching/{reportId}: 201 when the section was
// created, 200 when it replaced an existing one.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	reportID, err := formutil.ObjectIDParam(r, "reportId")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var in assembly.TeachingInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "save teaching section")
	defer cancel()

	sec, created, err := h.Svc.UpsertTeaching(ctx, actor, reportID, in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	uierrors.WriteJSON(w, status, sec)
}
