// internal/app/features/authorcid/orcid.go
package authorcid

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/dalemusser/waffle/pantry/query"
	uierrors "github.com/dalemusser/yar/internal/app/features/errors"
	"github.com/dalemusser/yar/internal/app/system/apierr"
	"github.com/dalemusser/yar/internal/app/system/authz"
	"github.com/dalemusser/yar/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var orcidPattern = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}-\d{3}[\dX]$`)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/orcid                                                             |
| Returns the ORCID consent URL for the signed-in user.                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeAuthorize(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if !h.IsConfigured() {
		h.Log.Warn("ORCID OAuth not configured")
		h.ErrLog.Write(w, r, apierr.Unavailable("ORCID linking is not configured"))
		return
	}

	state, err := generateState()
	if err != nil {
		h.ErrLog.LogServerError(w, r, "generate OAuth state", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "save OAuth state")
	defer cancel()

	returnURL := localPath(query.Get(r, "return"))
	if err := h.StateStore.Save(ctx, state, actor.ID, returnURL, stateTTL); err != nil {
		h.ErrLog.LogServerError(w, r, "save OAuth state", err)
		return
	}

	authURL := h.oauth2Config().AuthCodeURL(state)
	h.Log.Debug("initiating ORCID OAuth flow",
		zap.String("user_id", actor.ID.Hex()),
		zap.String("return_url", returnURL))

	uierrors.WriteJSON(w, http.StatusOK, map[string]string{"authorize_url": authURL})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/orcid/callback                                                    |
| Redeems the state, exchanges the code and records the ORCID iD.             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := query.Get(r, "error"); errParam != "" {
		h.Log.Warn("ORCID OAuth error",
			zap.String("error", errParam),
			zap.String("description", query.Get(r, "error_description")))
		http.Redirect(w, r, h.frontendRedirect("/", "denied"), http.StatusSeeOther)
		return
	}

	state := query.Get(r, "state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		http.Redirect(w, r, h.frontendRedirect("/", "invalid_state"), http.StatusSeeOther)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "ORCID callback")
	defer cancel()

	st, ok, err := h.StateStore.Consume(ctx, state)
	if err != nil {
		h.Log.Error("failed to consume OAuth state", zap.Error(err))
		http.Redirect(w, r, h.frontendRedirect("/", "internal"), http.StatusSeeOther)
		return
	}
	if !ok {
		h.Log.Warn("invalid or expired OAuth state")
		http.Redirect(w, r, h.frontendRedirect("/", "invalid_state"), http.StatusSeeOther)
		return
	}

	code := query.Get(r, "code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		http.Redirect(w, r, h.frontendRedirect(st.ReturnURL, "invalid_code"), http.StatusSeeOther)
		return
	}

	orcidID, err := h.exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange ORCID code", zap.Error(err), zap.String("user_id", st.UserID.Hex()))
		http.Redirect(w, r, h.frontendRedirect(st.ReturnURL, "token_exchange"), http.StatusSeeOther)
		return
	}

	if err := h.Users.SetOrcid(ctx, st.UserID, orcidID); err != nil {
		outcome := "internal"
		if err == mongo.ErrNoDocuments {
			outcome = "no_account"
		}
		h.Log.Error("failed to record ORCID iD", zap.Error(err), zap.String("user_id", st.UserID.Hex()))
		http.Redirect(w, r, h.frontendRedirect(st.ReturnURL, outcome), http.StatusSeeOther)
		return
	}

	h.AuditLog.OrcidLinked(ctx, r, st.UserID, orcidID)
	h.Log.Info("ORCID linked", zap.String("user_id", st.UserID.Hex()), zap.String("orcid_id", orcidID))
	http.Redirect(w, r, h.frontendRedirect(st.ReturnURL, "linked"), http.StatusSeeOther)
}

// exchange trades the code for a token. ORCID returns the member's iD as an
// extra "orcid" field on the token response.
func (h *Handler) exchange(ctx context.Context, code string) (string, error) {
	tok, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	id, _ := tok.Extra("orcid").(string)
	if !orcidPattern.MatchString(id) {
		return "", errBadOrcid
	}
	return id, nil
}

var errBadOrcid = errors.New("token response carried no valid ORCID iD")
