package xerrors

import (
	"context"
	"errors"
	"fmt"
)

// Kind is a stable, client-facing error category.
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindInvalidTransition  Kind = "invalid_transition"
	KindAuth               Kind = "auth_error"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindRateLimited        Kind = "rate_limited"
	KindTimeout            Kind = "timeout"
	KindBackendUnavailable Kind = "backend_unavailable"
	KindInternal           Kind = "internal_error"
)

// Common reusable application errors
var (
	ErrNotFound           = New(KindNotFound, "resource not found")
	ErrInvalidCredentials = New(KindAuth, "invalid user id or password")
	ErrForbidden          = New(KindForbidden, "you do not have permission to access this resource")
	ErrStaleVersion       = New(KindConflict, "issue was modified by someone else, reload and retry")
	ErrRateLimited        = New(KindRateLimited, "too many attempts, try again later")
	ErrTimeout            = New(KindTimeout, "the backend did not respond in time")
	ErrBackendUnavailable = New(KindBackendUnavailable, "the backend is unavailable")
)

// Error carries a Kind, a user-safe message and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind and message, so sentinels keep
// working after Wrap attaches a cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation is shorthand for a KindValidation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause to a copy of the sentinel.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Message: sentinel.Message, Err: cause}
}

// KindOf returns the Kind of the first *Error in the chain. Context
// deadlines map to KindTimeout; anything else is KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// MessageOf returns the user-safe message for err, or fallback when err
// carries none.
func MessageOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
