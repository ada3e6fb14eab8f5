// internal/app/features/reports/routes.go
package reports

import (
	"github.com/dalemusser/yar/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /reports subrouter. Every route needs a signed-in user.
func Routes(h *Handler, am *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(am.RequireSignedIn)
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Delete("/delete/{id}", h.Delete)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Put("/{id}/notes", h.SetNotes)
	r.Post("/{id}/submit", h.Submit)
	return r
}
