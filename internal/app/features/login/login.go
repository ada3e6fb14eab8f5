// internal/app/features/login/login.go
package login

import (
	"errors"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/yar/internal/app/features/errors"
	userstore "github.com/dalemusser/yar/internal/app/store/users"
	"github.com/dalemusser/yar/internal/app/system/apierr"
	"github.com/dalemusser/yar/internal/app/system/authz"
	"github.com/dalemusser/yar/internal/app/system/formutil"
	"github.com/dalemusser/yar/internal/app/system/inputval"
	"github.com/dalemusser/yar/internal/app/system/normalize"
	"github.com/dalemusser/yar/internal/app/system/timeouts"
	"github.com/dalemusser/yar/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const msgBadCredentials = "Invalid NetID or password"

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/signup                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var in signupInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	in.NetID = normalize.NetID(in.NetID)
	in.Email = normalize.Email(in.Email)
	if res := inputval.Validate(in); res.HasErrors() {
		h.ErrLog.Write(w, r, apierr.Invalid(res))
		return
	}

	email := in.Email
	if email == "" && h.EmailDomain != "" {
		email = in.NetID + "@" + h.EmailDomain
	}
	role := models.RoleFaculty
	if h.AdminEmail != "" && email == normalize.Email(h.AdminEmail) {
		role = models.RoleAdmin
	}

	hash, err := userstore.HashPassword(in.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "signup")
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		NetID:        in.NetID,
		FullName:     in.FullName,
		Email:        email,
		PasswordHash: hash,
		Department:   normalize.Name(in.Department),
		Role:         role,
		IsActive:     true,
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateNetID):
		h.ErrLog.Write(w, r, apierr.Validation("An account with this NetID already exists"))
		return
	case errors.Is(err, userstore.ErrDuplicateEmail):
		h.ErrLog.Write(w, r, apierr.Validation("An account with this email already exists"))
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "create user", err)
		return
	}

	h.AuditLog.SignedUp(ctx, r, u.ID, u.NetID, u.Role)
	h.Log.Info("user signed up", zap.String("user_id", u.ID.Hex()), zap.String("role", u.Role))
	h.writeSession(w, r, http.StatusCreated, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/login                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	netID := normalize.NetID(in.NetID)
	if res := inputval.Validate(in); res.HasErrors() {
		h.ErrLog.Write(w, r, apierr.Invalid(res))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	if h.Limiter != nil {
		ok, reason := h.Limiter.Check(r, netID)
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(h.Limiter.Remaining(r)))
		if !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, netID, "login")
			h.ErrLog.Write(w, r, apierr.RateLimited(reason))
			return
		}
	}

	u, err := h.Users.GetByNetID(ctx, netID)
	if err == mongo.ErrNoDocuments {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, netID)
		h.ErrLog.Write(w, r, apierr.Validation(msgBadCredentials))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user", err)
		return
	}
	if !userstore.CheckPassword(u.PasswordHash, in.Password) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, netID)
		h.ErrLog.Write(w, r, apierr.Validation(msgBadCredentials))
		return
	}
	if !u.IsActive {
		h.AuditLog.LoginFailedUserInactive(ctx, r, u.ID, netID)
		h.ErrLog.Write(w, r, apierr.Forbidden("Account is inactive"))
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetNetID(netID)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.NetID)
	h.writeSession(w, r, http.StatusOK, *u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/me                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load current user")
	defer cancel()

	u, err := h.Users.GetByID(ctx, actor.ID)
	if err == mongo.ErrNoDocuments {
		h.ErrLog.Write(w, r, apierr.Unauthenticated("Authentication required"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) writeSession(w http.ResponseWriter, r *http.Request, status int, u models.User) {
	tok, exp, err := h.Auth.Issue(u.ID.Hex(), u.Role)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "issue token", err)
		return
	}
	uierrors.WriteJSON(w, status, session{User: u, Token: tok, ExpiresAt: exp})
}
