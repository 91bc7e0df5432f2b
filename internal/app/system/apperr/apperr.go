// Package apperr defines the error kinds returned by services and how they
// map to HTTP responses.
//
// Services return *Error values; handlers call KindOf/HTTPStatus and render
// Message. The wrapped Err is for logs only and is never shown to users.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers.
type Kind int

const (
	KindStorage Kind = iota // unclassified persistence failure
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	default:
		return "storage"
	}
}

// Error is a kinded error with a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same Kind and Message, so package-level
// sentinels can be compared with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

func newErr(k Kind, msg string) *Error { return &Error{Kind: k, Message: msg} }

// Unauthenticated reports a missing or invalid session.
func Unauthenticated(msg string) *Error { return newErr(KindUnauthenticated, msg) }

// Forbidden reports a failed role or scope check.
func Forbidden(msg string) *Error { return newErr(KindForbidden, msg) }

// NotFound reports a missing referenced entity.
func NotFound(msg string) *Error { return newErr(KindNotFound, msg) }

// Conflict reports an invariant violation or an unexpected state.
func Conflict(msg string) *Error { return newErr(KindConflict, msg) }

// Validation reports malformed input.
func Validation(msg string) *Error { return newErr(KindValidation, msg) }

// Storage wraps an unexpected persistence error behind a generic message.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Message: "Something went wrong. Please try again.", Err: err}
}

// ErrUnauthenticated is returned when no user is attached to the request.
var ErrUnauthenticated = Unauthenticated("Please sign in to continue.")

// KindOf returns the Kind of err. Errors that are not *Error are storage errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStorage
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return Storage(err).Message
}

// IsKind reports whether err has kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// HTTPStatus maps a Kind to the response status code.
func HTTPStatus(k Kind) int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
