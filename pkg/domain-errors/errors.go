// Package domainerrors defines the coded error type shared across modules.
//
// Services return these instead of raw errors so transport layers can map
// failures to HTTP statuses without string matching, and so callers can
// branch on error class with HasCode. A scoring check that fails is NOT an
// error: failure is data (a result with Passed=false). Only infrastructure
// and contract violations travel through this package.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping and retry policy.
type Code string

const (
	// CodeInvalidInput marks malformed or out-of-range caller input.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks requests that cannot be decoded at all.
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks missing or failed authentication.
	CodeUnauthorized Code = "unauthorized"
	// CodeNotFound marks a lookup miss for an owned record.
	CodeNotFound Code = "not_found"
	// CodeInvalidState marks a transition the application state machine
	// forbids, e.g. mutating a terminal application. Always a caller bug.
	CodeInvalidState Code = "invalid_state"
	// CodeExtraction marks a feature-extraction collaborator failure.
	// Retryable; never coerced into a failed verification decision.
	CodeExtraction Code = "extraction_failed"
	// CodeTimeout marks a deadline hit while waiting on a collaborator.
	CodeTimeout Code = "timeout"
	// CodeConfiguration marks missing or invalid startup configuration.
	CodeConfiguration Code = "configuration"
	// CodeConflict marks an optimistic-concurrency collision.
	CodeConflict Code = "conflict"
	// CodeInternal is the fallback for unexpected failures.
	CodeInternal Code = "internal_error"
)

// Error carries a classification code plus a human-readable message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is / errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// IsRetryable reports whether the orchestrator may retry the operation.
// Only collaborator failures qualify; domain outcomes never do.
func IsRetryable(err error) bool {
	return HasCode(err, CodeExtraction) || HasCode(err, CodeTimeout)
}
