// Package apperr gives every HTTP-facing package in this module a
// common error taxonomy, so a thin handler can map any error returned
// from catalog/searchindex/indexer/relay to the right HTTP status
// without each package inventing its own sentinel errors. Mechanical
// translation of the status-code branches original_source/crates/server
// scatters across its route handlers (NotFound, BadRequest, Gone for an
// expired pairing offer, etc.) into one reusable type.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a closed taxonomy of error categories a caller can branch on
// without string-matching messages.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindBadRequest         Kind = "bad_request"
	KindUnauthorized       Kind = "unauthorized"
	KindExpired            Kind = "expired"
	KindTransientIO        Kind = "transient_io"
	KindServiceUnavailable Kind = "service_unavailable"
	KindInternal           Kind = "internal"
)

// Error wraps an underlying cause with a Kind the caller can act on and
// an operator-facing message distinct from what's safe to show a
// client.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, apperr.NotFound("")) match any *Error with the
// same Kind, ignoring Message/Cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func NotFound(message string) *Error     { return newErr(KindNotFound, message, nil) }
func BadRequest(message string) *Error   { return newErr(KindBadRequest, message, nil) }
func Unauthorized(message string) *Error { return newErr(KindUnauthorized, message, nil) }
func Expired(message string) *Error      { return newErr(KindExpired, message, nil) }

// Wrap annotates cause with kind and message, for propagating a lower
// layer's failure (a sql.ErrNoRows, a closed bleve index) as an apperr
// without losing the original error for logging.
func Wrap(kind Kind, message string, cause error) *Error {
	return newErr(kind, message, cause)
}

// Internal wraps an unexpected error as KindInternal, the default for
// anything a handler didn't anticipate.
func Internal(cause error) *Error {
	return newErr(KindInternal, "internal error", cause)
}

// HTTPStatus maps a Kind to the status code a thin handler should write.
// Any error that isn't an *Error (or wraps one) maps to 500.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindExpired:
		return http.StatusGone
	case KindTransientIO:
		return http.StatusServiceUnavailable
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
