// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/yar/internal/app/store/audit"
	"github.com/dalemusser/yar/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, signup, ORCID linking).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for admin actions (status changes, role changes).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.ReportID != nil {
		fields = append(fields, zap.String("report_id", event.ReportID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func requestEvent(r *http.Request, category, eventType string, success bool) audit.Event {
	e := audit.Event{
		Category:  category,
		EventType: eventType,
		Success:   success,
	}
	if r != nil {
		e.IP = ratelimit.ClientIP(r)
		e.UserAgent = r.UserAgent()
	}
	return e
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, netID string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	e.UserID = &userID
	e.Details = map[string]string{"net_id": netID}
	l.Log(ctx, e)
}

// LoginFailedUserNotFound logs a login attempt for an unknown NetID.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedNetID string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound, false)
	e.FailureReason = "user not found"
	e.Details = map[string]string{"attempted_net_id": attemptedNetID}
	l.Log(ctx, e)
}

// LoginFailedWrongPassword logs a login attempt with a bad password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, netID string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword, false)
	e.UserID = &userID
	e.FailureReason = "wrong password"
	e.Details = map[string]string{"net_id": netID}
	l.Log(ctx, e)
}

// LoginFailedUserInactive logs a login attempt by a deactivated account.
func (l *Logger) LoginFailedUserInactive(ctx context.Context, r *http.Request, userID primitive.ObjectID, netID string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedUserInactive, false)
	e.UserID = &userID
	e.FailureReason = "account inactive"
	e.Details = map[string]string{"net_id": netID}
	l.Log(ctx, e)
}

// LoginFailedRateLimit logs a login attempt rejected by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, netID, limitType string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventLoginFailedRateLimit, false)
	e.FailureReason = "rate limit exceeded"
	e.Details = map[string]string{"net_id": netID, "limit_type": limitType}
	l.Log(ctx, e)
}

// SignedUp logs a new account registration.
func (l *Logger) SignedUp(ctx context.Context, r *http.Request, userID primitive.ObjectID, netID, role string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventSignup, true)
	e.UserID = &userID
	e.Details = map[string]string{"net_id": netID, "role": role}
	l.Log(ctx, e)
}

// OrcidLinked logs an ORCID iD being attached to an account.
func (l *Logger) OrcidLinked(ctx context.Context, r *http.Request, userID primitive.ObjectID, orcidID string) {
	e := requestEvent(r, audit.CategoryAuth, audit.EventOrcidLinked, true)
	e.UserID = &userID
	e.Details = map[string]string{"orcid_id": orcidID}
	l.Log(ctx, e)
}

// --- Admin Events ---

// ReportStatusChanged logs an administrator moving a report to a new status.
func (l *Logger) ReportStatusChanged(ctx context.Context, r *http.Request, actorID, ownerID, reportID primitive.ObjectID, from, to string) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventReportStatusChanged, true)
	e.ActorID = &actorID
	e.UserID = &ownerID
	e.ReportID = &reportID
	e.Details = map[string]string{"from": from, "to": to}
	l.Log(ctx, e)
}

// UserRoleChanged logs an administrator changing a user's role.
func (l *Logger) UserRoleChanged(ctx context.Context, r *http.Request, actorID, targetUserID primitive.ObjectID, from, to string) {
	e := requestEvent(r, audit.CategoryAdmin, audit.EventUserRoleChanged, true)
	e.ActorID = &actorID
	e.UserID = &targetUserID
	e.Details = map[string]string{"from": from, "to": to}
	l.Log(ctx, e)
}

// RolesMigrated logs the startup rewrite of legacy roles. It has no request.
func (l *Logger) RolesMigrated(ctx context.Context, count int64, from, to string) {
	e := requestEvent(nil, audit.CategoryAdmin, audit.EventRolesMigrated, true)
	e.Details = map[string]string{"from": from, "to": to, "count": formatInt(count)}
	l.Log(ctx, e)
}

// --- Report Events ---

// ReportSubmitted logs a faculty member submitting a report.
func (l *Logger) ReportSubmitted(ctx context.Context, r *http.Request, ownerID, reportID primitive.ObjectID, academicYear string) {
	e := requestEvent(r, audit.CategoryReport, audit.EventReportSubmitted, true)
	e.UserID = &ownerID
	e.ReportID = &reportID
	e.Details = map[string]string{"academic_year": academicYear}
	l.Log(ctx, e)
}

// ReportDeleted logs a report and its sections being removed.
func (l *Logger) ReportDeleted(ctx context.Context, r *http.Request, actorID, reportID primitive.ObjectID, academicYear string) {
	e := requestEvent(r, audit.CategoryReport, audit.EventReportDeleted, true)
	e.ActorID = &actorID
	e.ReportID = &reportID
	e.Details = map[string]string{"academic_year": academicYear}
	l.Log(ctx, e)
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
