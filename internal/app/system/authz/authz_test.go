package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/yar/internal/app/system/apierr"
	"github.com/dalemusser/yar/internal/app/system/auth"
	"github.com/dalemusser/yar/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserCtx_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	role, name, id, ok := authz.UserCtx(req)
	if ok {
		t.Error("expected ok=false without a user")
	}
	if role != "visitor" || name != "" || id != primitive.NilObjectID {
		t.Errorf("got (%q, %q, %v), want visitor defaults", role, name, id)
	}
}

func TestUserCtx_MalformedID(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.User{ID: "not-an-id", Role: "admin"})

	if _, _, _, ok := authz.UserCtx(req); ok {
		t.Error("expected ok=false for malformed id")
	}
	if _, err := authz.RequireActor(req); err == nil {
		t.Error("expected RequireActor to fail for malformed id")
	}
}

func TestActorFrom(t *testing.T) {
	id := primitive.NewObjectID()
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.User{ID: id.Hex(), Name: "Fay Faculty", Role: "Faculty"})

	actor, ok := authz.ActorFrom(req)
	if !ok {
		t.Fatal("expected actor")
	}
	if actor.ID != id {
		t.Errorf("ID: got %v, want %v", actor.ID, id)
	}
	if actor.Role != "faculty" {
		t.Errorf("Role: got %q, want %q", actor.Role, "faculty")
	}
}

func TestActor_CanAccess(t *testing.T) {
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()

	tests := []struct {
		name  string
		actor authz.Actor
		want  bool
	}{
		{"owner", authz.Actor{ID: owner, Role: "faculty"}, true},
		{"other faculty", authz.Actor{ID: other, Role: "faculty"}, false},
		{"admin", authz.Actor{ID: other, Role: "admin"}, true},
		{"zero id", authz.Actor{Role: "faculty"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.actor.CanAccess(owner); got != tt.want {
				t.Errorf("CanAccess: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequireActor(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	if _, err := authz.RequireActor(req); !apierr.IsKind(err, apierr.KindUnauthenticated) {
		t.Errorf("anonymous: got %v, want unauthenticated", err)
	}

	id := primitive.NewObjectID()
	req = auth.WithTestUser(req, &auth.User{ID: id.Hex(), Role: "admin"})
	actor, err := authz.RequireActor(req)
	if err != nil {
		t.Fatalf("RequireActor: %v", err)
	}
	if !actor.IsAdmin() {
		t.Error("expected admin actor")
	}
}
