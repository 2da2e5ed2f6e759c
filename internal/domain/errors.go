package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies request failures so the transport layer can report
// differentiated outcomes instead of a generic 500.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindTooManyStops      ErrorKind = "too_many_stops"
	KindOracleUnavailable ErrorKind = "oracle_unavailable"
	KindOracleRejected    ErrorKind = "oracle_rejected"
	KindTimeout           ErrorKind = "timeout"
	KindInternal          ErrorKind = "internal"
)

// Error is a typed, request-scoped failure. Nothing in the engine is fatal
// to the process; every Error is scoped to the one request that raised it.
type Error struct {
	Kind    ErrorKind
	Field   string // set for field-level validation failures
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// NewError creates a typed error without an underlying cause.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ValidationError creates a field-level validation failure.
func ValidationError(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind to an underlying error, preserving the chain.
func WrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf extracts the kind from anywhere in an error chain. Context
// cancellation is reported as KindTimeout; everything untyped is internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}

	return KindInternal
}
