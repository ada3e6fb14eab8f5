// internal/app/features/admin/faculty.go
package admin

import (
	"net/http"

	uierrors "github.com/dalemusser/yar/internal/app/features/errors"
	"github.com/dalemusser/yar/internal/app/system/authz"
	"github.com/dalemusser/yar/internal/app/system/formutil"
	"github.com/dalemusser/yar/internal/app/system/timeouts"
)

// ListFaculty handles GET /admin/faculty.
func (h *Handler) ListFaculty(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "list faculty with reports")
	defer cancel()

	list, err := h.Svc.ListFacultyWithReports(ctx, actor)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, list)
}

// ListFacultyReports handles GET /admin/faculty/{id}/reports.
func (h *Handler) ListFacultyReports(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	facultyID, err := formutil.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list faculty reports")
	defer cancel()

	list, err := h.Svc.ListReportsForFaculty(ctx, actor, facultyID)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, list)
}

// GetFacultyReport handles GET /admin/faculty/{id}/report/{reportId}.
func (h *Handler) GetFacultyReport(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	facultyID, err := formutil.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	reportID, err := formutil.ObjectIDParam(r, "reportId")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "get faculty report")
	defer cancel()

	fr, err := h.Svc.GetFacultyReport(ctx, actor, facultyID, reportID)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, fr)
}
