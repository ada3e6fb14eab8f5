package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/yar/internal/app/store/users"
	"github.com/dalemusser/yar/internal/domain/models"
	"github.com/dalemusser/yar/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create_Faculty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		NetID:    "  JDoe ",
		FullName: "  Jane   Doe ",
		Email:    "JDoe@Example.edu",
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.NetID != "jdoe" {
		t.Errorf("NetID: got %q, want %q", created.NetID, "jdoe")
	}
	if created.FullName != "Jane Doe" {
		t.Errorf("FullName: got %q, want %q", created.FullName, "Jane Doe")
	}
	if created.FullNameCI == "" {
		t.Error("expected FullNameCI to be set")
	}
	if created.Email != "jdoe@example.edu" {
		t.Errorf("Email: got %q, want %q", created.Email, "jdoe@example.edu")
	}
	if created.Role != models.RoleFaculty {
		t.Errorf("Role: got %q, want %q", created.Role, models.RoleFaculty)
	}
	if created.SchemaVersion != models.UserSchemaVersion {
		t.Errorf("SchemaVersion: got %d, want %d", created.SchemaVersion, models.UserSchemaVersion)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{NetID: "x", Email: "x@example.edu", Role: models.RoleDepartmentHead})
	if err == nil {
		t.Fatal("expected error for legacy role")
	}
}

func TestStore_Create_Duplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{NetID: "dup", Email: "dup@example.edu", IsActive: true}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	_, err := store.Create(ctx, models.User{NetID: "dup", Email: "other@example.edu"})
	if !errors.Is(err, userstore.ErrDuplicateNetID) {
		t.Errorf("same NetID: got %v, want ErrDuplicateNetID", err)
	}

	_, err = store.Create(ctx, models.User{NetID: "other", Email: "DUP@example.edu"})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("same email: got %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_GetByNetID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateFaculty(ctx, "asmith", "Alice Smith")

	got, err := store.GetByNetID(ctx, "ASMITH")
	if err != nil {
		t.Fatalf("GetByNetID failed: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetByNetID: got %s, want %s", got.ID.Hex(), u.ID.Hex())
	}

	_, err = store.GetByID(ctx, primitive.NewObjectID())
	if err != mongo.ErrNoDocuments {
		t.Errorf("GetByID unknown: got %v, want mongo.ErrNoDocuments", err)
	}
}

func TestStore_SetRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateFaculty(ctx, "bjones", "Bob Jones")

	updated, err := store.SetRole(ctx, u.ID, "ADMIN")
	if err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	if updated.Role != models.RoleAdmin {
		t.Errorf("Role: got %q, want %q", updated.Role, models.RoleAdmin)
	}

	if _, err := store.SetRole(ctx, u.ID, "dean"); err == nil {
		t.Error("expected error for unknown role")
	}
	if _, err := store.SetRole(ctx, primitive.NewObjectID(), models.RoleAdmin); err != mongo.ErrNoDocuments {
		t.Errorf("unknown user: got %v, want mongo.ErrNoDocuments", err)
	}
}

func TestStore_SetOrcid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateFaculty(ctx, "corcid", "Carol Orcid")
	if err := store.SetOrcid(ctx, u.ID, "0000-0002-1825-0097"); err != nil {
		t.Fatalf("SetOrcid failed: %v", err)
	}
	got, _ := store.GetByID(ctx, u.ID)
	if got.OrcidID != "0000-0002-1825-0097" {
		t.Errorf("OrcidID: got %q", got.OrcidID)
	}
	if err := store.SetOrcid(ctx, primitive.NewObjectID(), "x"); err != mongo.ErrNoDocuments {
		t.Errorf("unknown user: got %v, want mongo.ErrNoDocuments", err)
	}
}

func TestStore_PromoteByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateFaculty(ctx, "dhead", "Dana Head")

	found, err := store.PromoteByEmail(ctx, "dhead@test.edu")
	if err != nil {
		t.Fatalf("PromoteByEmail failed: %v", err)
	}
	if !found {
		t.Error("expected user to be found")
	}
	got, _ := store.GetByID(ctx, u.ID)
	if got.Role != models.RoleAdmin {
		t.Errorf("Role: got %q, want %q", got.Role, models.RoleAdmin)
	}

	// already admin
	found, err = store.PromoteByEmail(ctx, "dhead@test.edu")
	if err != nil || !found {
		t.Errorf("second promote: found=%v err=%v", found, err)
	}

	found, err = store.PromoteByEmail(ctx, "nobody@test.edu")
	if err != nil {
		t.Fatalf("PromoteByEmail failed: %v", err)
	}
	if found {
		t.Error("expected unknown email to report not found")
	}
}

func TestStore_ListFaculty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateFaculty(ctx, "zed", "Zed Zulu")
	fixtures.CreateFaculty(ctx, "amy", "Amy Alpha")
	fixtures.CreateAdmin(ctx, "root", "Root Admin")

	list, err := store.ListFaculty(ctx)
	if err != nil {
		t.Fatalf("ListFaculty failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 faculty, got %d", len(list))
	}
	if list[0].NetID != "amy" {
		t.Errorf("first: got %q, want %q", list[0].NetID, "amy")
	}
	if list[0].PasswordHash != "" {
		t.Error("password hash should be projected out")
	}
}

func TestStore_MigrateLegacyRoles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("users").InsertMany(ctx, []interface{}{
		bson.M{"net_id": "old1", "email": "old1@test.edu", "role": "department_head", "is_active": true},
		bson.M{"net_id": "old2", "email": "old2@test.edu", "role": "faculty", "is_active": true},
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	n, err := store.MigrateLegacyRoles(ctx)
	if err != nil {
		t.Fatalf("MigrateLegacyRoles failed: %v", err)
	}
	if n != 1 {
		t.Errorf("migrated: got %d, want 1", n)
	}

	got, _ := store.GetByNetID(ctx, "old1")
	if got.Role != models.RoleFaculty {
		t.Errorf("Role: got %q, want %q", got.Role, models.RoleFaculty)
	}
	other, _ := store.GetByNetID(ctx, "old2")
	if other.SchemaVersion != models.UserSchemaVersion {
		t.Errorf("SchemaVersion: got %d, want %d", other.SchemaVersion, models.UserSchemaVersion)
	}

	// idempotent
	n, err = store.MigrateLegacyRoles(ctx)
	if err != nil || n != 0 {
		t.Errorf("second run: n=%d err=%v", n, err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := userstore.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !userstore.CheckPassword(hash, "correct horse") {
		t.Error("expected password to match")
	}
	if userstore.CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}
	if userstore.CheckPassword("", "anything") {
		t.Error("empty hash must never match")
	}
}

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	fetcher := userstore.NewFetcher(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateFaculty(ctx, "fetchme", "Fetch Me")
	got := fetcher.FetchUser(ctx, u.ID.Hex())
	if got == nil {
		t.Fatal("expected user")
	}
	if got.NetID != "fetchme" || got.Role != models.RoleFaculty {
		t.Errorf("got %+v", got)
	}

	if fetcher.FetchUser(ctx, "not-an-id") != nil {
		t.Error("expected nil for malformed id")
	}

	_, _ = db.Collection("users").UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{"is_active": false}})
	if fetcher.FetchUser(ctx, u.ID.Hex()) != nil {
		t.Error("expected nil for inactive user")
	}
}
