// internal/app/features/service/routes.go
package service

import (
	"github.com/dalemusser/yar/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, am *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Use(am.RequireSignedIn)
	r.Get("/{id}", h.List)
	r.Post("/{id}", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}
