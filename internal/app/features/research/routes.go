// internal/app/features/research/routes.go
package research

import (
	"github.com/dalemusser/yar/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, am *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(am.RequireSignedIn)
	r.Get("/{reportId}", h.Get)
	r.Post("/{reportId}", h.Save)
	return r
}
