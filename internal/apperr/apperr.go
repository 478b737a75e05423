// Package apperr defines the failure taxonomy shared by every domain service.
//
// Errors carry a Kind so that callers can map them to transport responses
// without inspecting messages: the HTTP layer turns kinds into status codes
// and the agent tool layer renders them into structured results.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a domain failure.
type Kind string

const (
	KindInternal     Kind = "INTERNAL"
	KindNotFound     Kind = "NOT_FOUND"
	KindForbidden    Kind = "FORBIDDEN"
	KindConflict     Kind = "CONFLICT"
	KindInvalidActor Kind = "INVALID_ACTOR"
	KindValidation   Kind = "VALIDATION_ERROR"

	// KindUnauthenticated is a failed login or missing credentials.
	KindUnauthenticated Kind = "UNAUTHENTICATED"
)

// Error is a domain error with a machine-readable kind.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrConflict)
// works regardless of the message.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrInvalidActor = &Error{Kind: KindInvalidActor}
	ErrValidation   = &Error{Kind: KindValidation}

	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func NotFound(message string) *Error     { return New(KindNotFound, message) }
func Forbidden(message string) *Error    { return New(KindForbidden, message) }
func Conflict(message string) *Error     { return New(KindConflict, message) }
func InvalidActor(message string) *Error { return New(KindInvalidActor, message) }
func Validation(message string) *Error   { return New(KindValidation, message) }

func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message) }

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the response code used by the HTTP API.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindInvalidActor, KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
