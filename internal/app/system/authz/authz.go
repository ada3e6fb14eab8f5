// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/yar/internal/app/system/apierr"
	"github.com/dalemusser/yar/internal/app/system/auth"
	"github.com/dalemusser/yar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the caller as the service layer sees it.
type Actor struct {
	ID   primitive.ObjectID
	Name string
	Role string
}

// IsAdmin reports whether the actor may act on any faculty member's data.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CanAccess reports whether the actor may read or change data owned by
// ownerID: the owner always can, admins can for everyone.
func (a Actor) CanAccess(ownerID primitive.ObjectID) bool {
	return a.IsAdmin() || (!a.ID.IsZero() && a.ID == ownerID)
}

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "visitor", "", NilObjectID, false.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed id in a token we signed; fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// ActorFrom builds the Actor for the signed-in caller.
func ActorFrom(r *http.Request) (Actor, bool) {
	role, name, id, ok := UserCtx(r)
	if !ok {
		return Actor{}, false
	}
	return Actor{ID: id, Name: name, Role: role}, true
}

// RequireActor is ActorFrom with a 401 error for anonymous callers.
func RequireActor(r *http.Request) (Actor, error) {
	a, ok := ActorFrom(r)
	if !ok {
		return Actor{}, apierr.Unauthenticated("Authentication required")
	}
	return a, nil
}
