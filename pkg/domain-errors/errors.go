// Package domainerrors defines the coded error type shared by all services.
//
// Services classify failures with a Code so the transport layer can translate
// them without string matching. Stores do NOT use this package directly; they
// return pkg/platform/sentinel errors and services translate.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks malformed or out-of-policy input. The caller can
	// correct the request and retry.
	CodeValidation Code = "validation"
	// CodeInvalidInput marks a value rejected at a trust boundary (bad UUID,
	// bad enum literal) before domain rules even apply.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound marks an absent envelope/recipient/document.
	CodeNotFound Code = "not_found"
	// CodeForbidden marks an authorization failure: the caller exists but may
	// not perform the operation.
	CodeForbidden Code = "forbidden"
	// CodeUnauthorized marks a missing or invalid credential.
	CodeUnauthorized Code = "unauthorized"
	// CodeBadRequest marks a request the transport layer could not parse.
	CodeBadRequest Code = "bad_request"
	// CodeConflict marks a concurrent-mutation conflict detected at the
	// persistence boundary. The same request retried may succeed.
	CodeConflict Code = "conflict"
	// CodeInvariantViolation marks an attempt to construct an illegal domain
	// state. Services normally translate this to CodeValidation at the edge.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal marks everything else.
	CodeInternal Code = "internal"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
