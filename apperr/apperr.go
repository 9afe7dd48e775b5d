// Package apperr defines the error kinds returned by the resource layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindValidation
	KindUnauthorized
	KindConflict
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindForbidden:
		return "Forbidden"
	case KindValidation:
		return "ValidationError"
	case KindUnauthorized:
		return "Unauthorized"
	case KindConflict:
		return "Conflict"
	case KindStore:
		return "StoreError"
	default:
		return "InternalError"
	}
}

var (
	// ErrNotFound matches any NotFound error with errors.Is.
	ErrNotFound = &Error{Kind: KindNotFound}

	// ErrForbidden matches any Forbidden error with errors.Is.
	ErrForbidden = &Error{Kind: KindForbidden}

	// ErrValidation matches any Validation error with errors.Is.
	ErrValidation = &Error{Kind: KindValidation}

	// ErrUnauthorized matches any Unauthorized error with errors.Is.
	ErrUnauthorized = &Error{Kind: KindUnauthorized}

	// ErrConflict matches any Conflict error with errors.Is.
	ErrConflict = &Error{Kind: KindConflict}

	// ErrStore matches any Store error with errors.Is.
	ErrStore = &Error{Kind: KindStore}
)

// Error is a classified error with a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a bare sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Store wraps a failure of the underlying document store. The cause stays
// reachable through errors.Is and errors.As.
func Store(op string, err error) *Error {
	return &Error{Kind: KindStore, Message: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message of err. Store and internal errors
// never expose their cause.
func MessageOf(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "An unexpected error occurred"
	}
	switch e.Kind {
	case KindStore, KindInternal:
		return "An unexpected error occurred"
	}
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}
