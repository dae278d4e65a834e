package types

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind identifies a class of terminal analysis failure. Validation
// and access errors short-circuit the pipeline with no partial result;
// per-file read errors are not part of this taxonomy because they are
// recorded in SkippedPath lists instead of raised.
type ErrorKind string

const (
	ErrRequestValidation ErrorKind = "RequestValidationError"
	ErrRepositoryAccess  ErrorKind = "RepositoryAccessError"
	ErrRevisionNotFound  ErrorKind = "RevisionNotFoundError"
	ErrCancelled         ErrorKind = "Cancelled"
	ErrInternal          ErrorKind = "InternalError"
)

// Error is the structured error surfaced to RPC callers as {kind, message}.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// NewError builds a taxonomy error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a taxonomy error that preserves its cause for
// errors.Is/As chains.
func WrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf extracts the taxonomy kind from an error chain, defaulting to
// ErrInternal for errors raised outside the taxonomy.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCancelled
	}
	return ErrInternal
}
