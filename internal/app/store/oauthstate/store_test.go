package oauthstate_test

import (
	"testing"
	"time"

	"github.com/dalemusser/yar/internal/app/store/oauthstate"
	"github.com/dalemusser/yar/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_SaveAndConsume(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	if err := store.Save(ctx, "state-123", userID, "/profile", 10*time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	st, ok, err := store.Consume(ctx, "state-123")
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if !ok {
		t.Fatal("expected state to be valid")
	}
	if st.UserID != userID {
		t.Errorf("UserID: got %s, want %s", st.UserID.Hex(), userID.Hex())
	}
	if st.ReturnURL != "/profile" {
		t.Errorf("ReturnURL: got %q, want %q", st.ReturnURL, "/profile")
	}
}

func TestStore_Consume_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, ok, err := store.Consume(ctx, "does-not-exist")
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if ok {
		t.Error("expected unknown state to be invalid")
	}
}

func TestStore_Consume_SingleUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Save(ctx, "once", primitive.NewObjectID(), "", 10*time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, ok, _ := store.Consume(ctx, "once"); !ok {
		t.Fatal("first Consume should succeed")
	}
	_, ok, err := store.Consume(ctx, "once")
	if err != nil {
		t.Fatalf("second Consume failed: %v", err)
	}
	if ok {
		t.Error("second Consume should fail")
	}
}

func TestStore_Consume_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Save(ctx, "stale", primitive.NewObjectID(), "", -time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	_, ok, err := store.Consume(ctx, "stale")
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if ok {
		t.Error("expected expired state to be invalid")
	}
}

func TestStore_Save_DuplicateState(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	if err := store.Save(ctx, "dup", primitive.NewObjectID(), "", time.Hour); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := store.Save(ctx, "dup", primitive.NewObjectID(), "", time.Hour); err == nil {
		t.Error("expected duplicate state to be rejected")
	}
}
