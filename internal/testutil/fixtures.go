package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/dalemusser/yar/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	return WithChiURLParams(r, map[string]string{key: value})
}

// WithChiURLParams adds several chi URL parameters at once.
func WithChiURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an active user with TestPassword and email
// <netID>@test.edu.
func (f *Fixtures) CreateUser(ctx context.Context, netID, fullName, role string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash test password: %v", err)
	}

	now := time.Now().UTC()
	u := models.User{
		ID:            primitive.NewObjectID(),
		NetID:         netID,
		FullName:      fullName,
		FullNameCI:    text.Fold(fullName),
		Email:         netID + "@test.edu",
		PasswordHash:  string(hash),
		Department:    "Testing",
		Role:          role,
		IsActive:      true,
		SchemaVersion: models.UserSchemaVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateFaculty creates a test faculty member.
func (f *Fixtures) CreateFaculty(ctx context.Context, netID, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, netID, fullName, models.RoleFaculty)
}

// CreateAdmin creates a test administrator.
func (f *Fixtures) CreateAdmin(ctx context.Context, netID, fullName string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, netID, fullName, models.RoleAdmin)
}

// CreateInactiveUser creates a faculty member whose account is deactivated.
func (f *Fixtures) CreateInactiveUser(ctx context.Context, netID, fullName string) models.User {
	f.t.Helper()
	u := f.CreateFaculty(ctx, netID, fullName)
	if _, err := f.db.Collection("users").UpdateByID(ctx, u.ID, map[string]any{"$set": map[string]any{"is_active": false}}); err != nil {
		f.t.Fatalf("failed to deactivate test user: %v", err)
	}
	u.IsActive = false
	return u
}

// CreateReport creates a draft report for owner.
func (f *Fixtures) CreateReport(ctx context.Context, ownerID primitive.ObjectID, academicYear string) models.Report {
	f.t.Helper()

	now := time.Now().UTC()
	r := models.Report{
		ID:                primitive.NewObjectID(),
		OwnerID:           ownerID,
		AcademicYear:      academicYear,
		Status:            models.StatusDraft,
		ServiceSectionIDs: []primitive.ObjectID{},
		AdminComments:     []models.AdminComment{},
		SchemaVersion:     models.ReportSchemaVersion,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := f.db.Collection("reports").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("failed to create test report: %v", err)
	}
	return r
}
