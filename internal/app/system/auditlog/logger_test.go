package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/yar/internal/app/store/audit"
	"github.com/dalemusser/yar/internal/app/system/auditlog"
	"github.com/dalemusser/yar/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	// no-ops, must not panic
	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "jdoe")
	logger.RolesMigrated(ctx, 3, "department_head", "faculty")
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Admin: "off"})

	logger.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		Success:   true,
	})

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no events when config is 'off'")
	}
}

func TestLogger_Log_ConfigLogOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "log"})
	logger.LoginSuccess(ctx, httptest.NewRequest("POST", "/auth/login", nil), userID, "jdoe")

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no stored events for 'log', got %d", len(events))
	}
}

func TestLogger_LoginSuccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db"})

	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	req.Header.Set("User-Agent", "TestBrowser/1.0")

	logger.LoginSuccess(ctx, req, userID, "jdoe")

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.EventType != audit.EventLoginSuccess {
		t.Errorf("EventType: got %q, want %q", event.EventType, audit.EventLoginSuccess)
	}
	if !event.Success {
		t.Error("expected Success to be true")
	}
	if event.IP != "192.168.1.1" {
		t.Errorf("IP: got %q, want %q", event.IP, "192.168.1.1")
	}
	if event.Details["net_id"] != "jdoe" {
		t.Errorf("net_id: got %q, want %q", event.Details["net_id"], "jdoe")
	}
}

func TestLogger_LoginFailedUserNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db"})
	logger.LoginFailedUserNotFound(ctx, httptest.NewRequest("POST", "/auth/login", nil), "nobody")

	events, err := store.Query(ctx, audit.QueryFilter{Limit: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.EventType != audit.EventLoginFailedUserNotFound {
		t.Errorf("EventType: got %q, want %q", event.EventType, audit.EventLoginFailedUserNotFound)
	}
	if event.Success {
		t.Error("expected Success to be false")
	}
	if event.FailureReason != "user not found" {
		t.Errorf("FailureReason: got %q, want %q", event.FailureReason, "user not found")
	}
}

func TestLogger_ReportStatusChanged(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	actorID := primitive.NewObjectID()
	ownerID := primitive.NewObjectID()
	reportID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Admin: "db"})

	req := httptest.NewRequest("PUT", "/admin/report/x/status", nil)
	logger.ReportStatusChanged(ctx, req, actorID, ownerID, reportID, "submitted", "reviewed")

	events, err := store.GetByReport(ctx, reportID, 10)
	if err != nil {
		t.Fatalf("GetByReport failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	event := events[0]
	if event.ActorID == nil || *event.ActorID != actorID {
		t.Error("expected ActorID to be set")
	}
	if event.UserID == nil || *event.UserID != ownerID {
		t.Error("expected UserID to be the report owner")
	}
	if event.Details["to"] != "reviewed" {
		t.Errorf("to: got %q, want %q", event.Details["to"], "reviewed")
	}
}

func TestLogger_AuthCategoryFilteredByConfig(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Admin: "db"})

	req := httptest.NewRequest("GET", "/", nil)
	logger.LoginSuccess(ctx, req, userID, "jdoe")

	target := primitive.NewObjectID()
	logger.UserRoleChanged(ctx, req, userID, target, "faculty", "admin")

	authEvents, _ := store.GetByUser(ctx, userID, 10)
	if len(authEvents) != 0 {
		t.Error("expected no auth events when auth config is 'off'")
	}

	adminEvents, _ := store.GetByUser(ctx, target, 10)
	if len(adminEvents) != 1 {
		t.Errorf("expected 1 admin event, got %d", len(adminEvents))
	}
}

func TestLogger_ReportCategoryAlwaysLogged(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ownerID := primitive.NewObjectID()
	reportID := primitive.NewObjectID()
	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Admin: "off"})
	logger.ReportSubmitted(ctx, httptest.NewRequest("POST", "/reports/x/submit", nil), ownerID, reportID, "2024-2025")

	events, err := store.GetByReport(ctx, reportID, 10)
	if err != nil {
		t.Fatalf("GetByReport failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventType != audit.EventReportSubmitted {
		t.Errorf("EventType: got %q, want %q", events[0].EventType, audit.EventReportSubmitted)
	}
}
