package authorcid

import (
	"github.com/dalemusser/yar/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for ORCID linking. Starting a link needs a
// signed-in user; the callback is bound to the user by its state token.
func Routes(h *Handler, am *auth.Manager) chi.Router {
	r := chi.NewRouter()

	// GET /auth/orcid - consent URL for the current user
	r.With(am.RequireSignedIn).Get("/", h.ServeAuthorize)

	// GET /auth/orcid/callback - redirect target registered with ORCID
	r.Get("/callback", h.ServeCallback)

	return r
}
