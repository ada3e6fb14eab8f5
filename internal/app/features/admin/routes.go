// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/yar/internal/app/system/auth"
	"github.com/dalemusser/yar/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin endpoints (typically under /admin). Every route
// requires the admin role.
func Routes(h *Handler, am *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(am.RequireRole(models.RoleAdmin))

	r.Get("/faculty", h.ListFaculty)
	r.Get("/faculty/{id}/reports", h.ListFacultyReports)
	r.Get("/faculty/{id}/report/{reportId}", h.GetFacultyReport)
	r.Put("/report/{id}/status", h.SetStatus)
	r.Put("/users/{id}/role", h.SetRole)

	r.Get("/audit", h.ListAudit)
	r.Get("/audit/failed-logins", h.FailedLogins)
	r.Get("/report/{id}/history", h.ReportHistory)
	r.Get("/users/{id}/audit", h.UserHistory)
	return r
}
