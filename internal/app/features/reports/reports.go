// internal/app/features/reports/reports.go
package reports

import (
	"net/http"

	"github.com/dalemusser/yar/internal/app/assembly"
	uierrors "github.com/dalemusser/yar/internal/app/features/errors"
	"github.com/dalemusser/yar/internal/app/system/authz"
	"github.com/dalemusser/yar/internal/app/system/formutil"
	"github.com/dalemusser/yar/internal/app/system/timeouts"
)

type notesRequest struct {
	Notes string `json:"notes"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /reports                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var in assembly.CreateReportInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create report")
	defer cancel()

	rep, err := h.Svc.CreateReport(ctx, actor, in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, rep)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /reports                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list reports")
	defer cancel()

	list, err := h.Svc.ListReports(ctx, actor)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, list)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /reports/{id}                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	id, err := formutil.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "get report")
	defer cancel()

	rep, err := h.Svc.GetReport(ctx, actor, id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, rep)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /reports/{id}                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	id, err := formutil.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var in assembly.UpdateReportInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update report")
	defer cancel()

	rep, err := h.Svc.UpdateReport(ctx, actor, id, in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, rep)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PUT /reports/{id}/notes                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) SetNotes(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	id, err := formutil.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var in notesRequest
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "save report notes")
	defer cancel()

	rep, err := h.Svc.SetGeneralNotes(ctx, actor, id, in.Notes)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, rep)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /reports/{id}/submit                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	id, err := formutil.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "submit report")
	defer cancel()

	rep, err := h.Svc.SubmitReport(ctx, actor, id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.AuditLog.ReportSubmitted(ctx, r, rep.OwnerID, rep.ID, rep.AcademicYear)
	uierrors.WriteJSON(w, http.StatusOK, rep)
}

/*─────────────────────────────────────────────────────────────────────────────*
| DELETE /reports/delete/{id}                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	id, err := formutil.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete report")
	defer cancel()

	rep, err := h.Svc.DeleteReport(ctx, actor, id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.AuditLog.ReportDeleted(ctx, r, actor.ID, rep.ID, rep.AcademicYear)
	uierrors.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Report deleted",
		"id":      rep.ID.Hex(),
	})
}
