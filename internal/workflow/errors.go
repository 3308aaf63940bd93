// Package workflow defines the error taxonomy shared by the clinic workflow
// services. Services return *workflow.Error values; HTTP handlers translate
// the Kind into a status code and never expose Internal error detail.
package workflow

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow error into one of the recoverable outcome
// categories the API layer knows how to present.
type Kind string

const (
	// KindNotFound indicates a referenced entity is absent.
	KindNotFound Kind = "NOT_FOUND"

	// KindConflict indicates the operation lost to existing state, such as a
	// doctor already booked at the requested time.
	KindConflict Kind = "CONFLICT"

	// KindInvalidState indicates the operation is illegal for the entity's
	// current status.
	KindInvalidState Kind = "INVALID_STATE"

	// KindUnauthorized indicates the caller lacks rights over the entity.
	KindUnauthorized Kind = "UNAUTHORIZED"

	// KindValidation indicates a missing or malformed required field.
	KindValidation Kind = "VALIDATION"

	// KindUnauthenticated indicates no resolvable caller identity.
	KindUnauthenticated Kind = "UNAUTHENTICATED"

	// KindInternal indicates an unexpected storage or infrastructure failure.
	KindInternal Kind = "INTERNAL"
)

// Error is a classified workflow outcome.
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

// NotFound reports an absent entity.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports that the operation lost to existing state.
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// InvalidState reports an operation illegal for the current status.
func InvalidState(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized reports a caller without rights over the entity.
func Unauthorized(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Validation reports a missing or malformed required field.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated reports a request without a resolvable caller.
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Internal wraps an unexpected failure. The wrapped error is logged, not
// returned to API clients.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf extracts the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
