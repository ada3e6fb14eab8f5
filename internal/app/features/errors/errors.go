// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/yar/internal/app/system/apierr"
)

// Handler serves the JSON fallbacks for unmatched routes and methods.
type Handler struct {
	ErrLog *ErrorLogger
}

// NewHandler constructs an errors Handler.
func NewHandler(errLog *ErrorLogger) *Handler {
	return &Handler{ErrLog: errLog}
}

// NotFound answers requests no route matched.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.ErrLog.Write(w, r, apierr.NotFound("Not found"))
}

// MethodNotAllowed answers a known path with an unsupported verb.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusMethodNotAllowed, Body{Error: "Method not allowed"})
}
