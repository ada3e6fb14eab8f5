// Package apierr is the error vocabulary shared by the service layer and the
// HTTP handlers. Each Error carries a Kind that fixes its status code; the
// features/errors package turns it into a JSON response.
package apierr

import (
	"errors"
	"net/http"

	"github.com/dalemusser/yar/internal/app/system/inputval"
	"github.com/dalemusser/yar/internal/domain/lifecycle"
)

type Kind int

const (
	KindServer Kind = iota
	KindValidation
	KindNotFound
	KindUnauthenticated
	KindForbidden
	KindConflict
	KindIncomplete
	KindRateLimited
	KindUnavailable
)

// Error is a client-presentable failure.
type Error struct {
	Kind       Kind
	Message    string
	Fields     map[string]string
	ExistingID string
	Completion *lifecycle.Completion
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind to its HTTP status. Conflicts and incomplete
// submissions are client errors and share 400 with validation failures.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindConflict, KindIncomplete:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == k
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Invalid wraps a failed inputval.Result.
func Invalid(res *inputval.Result) *Error {
	return &Error{Kind: KindValidation, Message: res.First(), Fields: res.Fields()}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Conflict reports a uniqueness clash; existingID names the record that
// already holds the slot, when known.
func Conflict(msg, existingID string) *Error {
	return &Error{Kind: KindConflict, Message: msg, ExistingID: existingID}
}

// Incomplete reports a submit attempt on a report missing sections.
func Incomplete(c lifecycle.Completion) *Error {
	return &Error{Kind: KindIncomplete, Message: "Report is incomplete", Completion: &c}
}

func RateLimited(msg string) *Error {
	return &Error{Kind: KindRateLimited, Message: msg}
}

func Unavailable(msg string) *Error {
	return &Error{Kind: KindUnavailable, Message: msg}
}

// Server wraps an unexpected failure. The message is only shown outside prod.
func Server(err error) *Error {
	return &Error{Kind: KindServer, Message: "Internal server error", Err: err}
}
