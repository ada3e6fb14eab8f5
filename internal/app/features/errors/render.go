// internal/app/features/errors/render.go
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/yar/internal/app/system/apierr"
	"github.com/dalemusser/yar/internal/domain/lifecycle"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// Body is the JSON shape of every error response.
type Body struct {
	Error      string                `json:"error"`
	Fields     map[string]string     `json:"fields,omitempty"`
	ExistingID string                `json:"existing_id,omitempty"`
	Completion *lifecycle.Completion `json:"completion,omitempty"`
}

// ErrorLogger writes apierr values as JSON and logs the ones that point at
// a server fault. Details of server faults are only sent to the client when
// ShowDetails is set (any env other than prod).
type ErrorLogger struct {
	Log         *zap.Logger
	ShowDetails bool
}

// NewErrorLogger returns an ErrorLogger that hides server details.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

// WithDetails switches on raw server error messages in responses.
func (e *ErrorLogger) WithDetails(show bool) *ErrorLogger {
	e.ShowDetails = show
	return e
}

// Write renders err. Errors that are not *apierr.Error are treated as
// server faults.
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, err error) {
	ae, ok := apierr.As(err)
	if !ok {
		ae = apierr.Server(err)
	}

	body := Body{
		Error:      ae.Message,
		Fields:     ae.Fields,
		ExistingID: ae.ExistingID,
		Completion: ae.Completion,
	}

	status := ae.Status()
	if status >= http.StatusInternalServerError {
		e.Log.Error("request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status))
		if e.ShowDetails && ae.Err != nil {
			body.Error = ae.Err.Error()
		}
	}
	WriteJSON(w, status, body)
}

// LogServerError logs err with msg and answers 500.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	e.Write(w, r, apierr.Server(pkgerrors.Wrap(err, msg)))
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
