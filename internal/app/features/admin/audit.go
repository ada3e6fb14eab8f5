// internal/app/features/admin/audit.go
package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	uierrors "github.com/dalemusser/yar/internal/app/features/errors"
	auditstore "github.com/dalemusser/yar/internal/app/store/audit"
	"github.com/dalemusser/yar/internal/app/system/apierr"
	"github.com/dalemusser/yar/internal/app/system/formutil"
	"github.com/dalemusser/yar/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500

	defaultFailedLoginWindow = 24 * time.Hour
)

// auditPage is the response of GET /admin/audit.
type auditPage struct {
	Total  int64              `json:"total"`
	Events []auditstore.Event `json:"events"`
}

// ListAudit handles GET /admin/audit. Optional query parameters:
// category, event_type, user_id, report_id, since and until (RFC 3339),
// limit and offset.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	f, err := auditFilter(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list audit events")
	defer cancel()

	events, err := h.Audit.Query(ctx, f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events", err)
		return
	}
	total, err := h.Audit.CountByFilter(ctx, f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, auditPage{Total: total, Events: nonNil(events)})
}

// ReportHistory handles GET /admin/report/{id}/history: status changes,
// submission and deletion of one report, newest first.
func (h *Handler) ReportHistory(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	limit, err := limitParam(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "report audit history")
	defer cancel()

	events, err := h.Audit.GetByReport(ctx, id, limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load report history", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, nonNil(events))
}

// UserHistory handles GET /admin/users/{id}/audit.
func (h *Handler) UserHistory(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectIDParam(r, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	limit, err := limitParam(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user audit history")
	defer cancel()

	events, err := h.Audit.GetByUser(ctx, id, limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user history", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, nonNil(events))
}

// FailedLogins handles GET /admin/audit/failed-logins. since is a Go
// duration looking back from now and defaults to 24h.
func (h *Handler) FailedLogins(w http.ResponseWriter, r *http.Request) {
	window := defaultFailedLoginWindow
	if v := query.Get(r, "since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			h.ErrLog.Write(w, r, apierr.Validation(`since must be a positive duration such as "24h"`))
			return
		}
		window = d
	}
	limit, err := limitParam(r)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "failed logins")
	defer cancel()

	events, err := h.Audit.GetFailedLogins(ctx, time.Now().Add(-window), limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load failed logins", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, nonNil(events))
}

/* ------------------------------ query params ------------------------------ */

func auditFilter(r *http.Request) (auditstore.QueryFilter, error) {
	var f auditstore.QueryFilter

	switch c := query.Get(r, "category"); c {
	case "", auditstore.CategoryAuth, auditstore.CategoryAdmin, auditstore.CategoryReport:
		f.Category = c
	default:
		return f, apierr.Validation("category must be auth, admin or report")
	}
	f.EventType = query.GetMax(r, "event_type", 64)

	if v := query.Get(r, "user_id"); v != "" {
		id, err := parseID("user_id", v)
		if err != nil {
			return f, err
		}
		f.UserID = &id
	}
	if v := query.Get(r, "report_id"); v != "" {
		id, err := parseID("report_id", v)
		if err != nil {
			return f, err
		}
		f.ReportID = &id
	}

	var err error
	if f.StartTime, err = timeParam(r, "since"); err != nil {
		return f, err
	}
	if f.EndTime, err = timeParam(r, "until"); err != nil {
		return f, err
	}

	if f.Limit, err = limitParam(r); err != nil {
		return f, err
	}
	if v := query.Get(r, "offset"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return f, apierr.Validation("offset must be a non-negative integer")
		}
		f.Offset = n
	}
	return f, nil
}

func parseID(key, v string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(v)
	if err != nil {
		return primitive.NilObjectID, apierr.Validation(key + " must be a valid id")
	}
	return id, nil
}

func limitParam(r *http.Request) (int64, error) {
	v := query.Get(r, "limit")
	if v == "" {
		return defaultAuditLimit, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 1 {
		return 0, apierr.Validation("limit must be a positive integer")
	}
	if n > maxAuditLimit {
		n = maxAuditLimit
	}
	return n, nil
}

func timeParam(r *http.Request, key string) (*time.Time, error) {
	v := query.Get(r, key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, apierr.Validation(key + " must be an RFC 3339 timestamp")
	}
	return &t, nil
}

func nonNil(events []auditstore.Event) []auditstore.Event {
	if events == nil {
		return []auditstore.Event{}
	}
	return events
}
