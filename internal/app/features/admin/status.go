// internal/app/features/admin/status.go
package admin

import (
	"net/http"

	"github.com/dalemusser/yar/internal/app/assembly"
	uierrors "github.com/dalemusser/yar/internal/app/features/errors"
	"github.com/dalemusser/yar/internal/app/system/authz"
	"github.com/dalemusser/yar/internal/app/system/formutil"
	"github.com/dalemusser/yar/internal/app/system/timeouts"
)

// SetStatus handles PUT /admin/report/{id}/status. Body:
//
//	{ "status": "reviewed", "comment": "optional" }
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
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
	var in assembly.StatusInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set report status")
	defer cancel()

	ch, err := h.Svc.SetStatus(ctx, actor, id, in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.AuditLog.ReportStatusChanged(ctx, r, actor.ID, ch.Report.OwnerID, ch.Report.ID, ch.From, ch.Report.Status)
	uierrors.WriteJSON(w, http.StatusOK, ch.Report)
}

// SetRole handles PUT /admin/users/{id}/role.
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
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
	var in assembly.RoleInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "set user role")
	defer cancel()

	ch, err := h.Svc.SetUserRole(ctx, actor, id, in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if ch.From != ch.User.Role {
		h.AuditLog.UserRoleChanged(ctx, r, actor.ID, ch.User.ID, ch.From, ch.User.Role)
	}
	uierrors.WriteJSON(w, http.StatusOK, ch.User)
}
