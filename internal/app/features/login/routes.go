package login

import (
	"github.com/dalemusser/yar/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /auth subrouter. Signup and login are public.
func Routes(h *Handler, am *auth.Manager) chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.With(am.RequireSignedIn).Get("/me", h.Me)
	return r
}
