// Package errors provides structured error types for patchsmith.
//
// This package defines error codes shared by the CLI's human and JSON
// outputs:
//   - Consistent error classification across commands
//   - Machine-readable codes in the JSON envelope
//   - A stable mapping from error class to process exit code
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - USAGE_*: Malformed invocations and arguments
//   - NOT_FOUND_*: Selector or edge resolution failures
//   - INVALID_*: Patch or document validation failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeObjectNotFound, "no object matches %q", sel)
//	if errors.Is(err, errors.ErrCodeObjectNotFound) {
//	    // Handle resolution failure
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeBadDocument, origErr, "cannot load %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Usage errors: wrong flags, arguments, or file extensions.
	ErrCodeUsage       Code = "USAGE_ERROR"
	ErrCodeBadSelector Code = "USAGE_BAD_SELECTOR"
	ErrCodeBadEdge     Code = "USAGE_BAD_EDGE"
	ErrCodeBadPath     Code = "USAGE_BAD_PATH"

	// Resolution errors: the input parsed but names nothing.
	ErrCodeNotFound           Code = "NOT_FOUND"
	ErrCodeObjectNotFound     Code = "OBJECT_NOT_FOUND"
	ErrCodeConnectionNotFound Code = "CONNECTION_NOT_FOUND"
	ErrCodeFileNotFound       Code = "FILE_NOT_FOUND"

	// Validation errors: the mutation or document violates an invariant.
	ErrCodeInvalidPort   Code = "INVALID_PORT"
	ErrCodeBadDocument   Code = "INVALID_DOCUMENT"
	ErrCodeCheckFailed   Code = "CHECK_FAILED"
	ErrCodeExportRefused Code = "EXPORT_REFUSED"

	// Internal errors.
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Process exit codes. Zero is success; 130 is reserved for SIGINT.
const (
	ExitUsage      = 2
	ExitResolution = 3
	ExitValidation = 4
	ExitInternal   = 5
)

// ExitCode maps an error to the process exit code its class demands.
// Errors without a code are internal.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch GetCode(err) {
	case ErrCodeUsage, ErrCodeBadSelector, ErrCodeBadEdge, ErrCodeBadPath:
		return ExitUsage
	case ErrCodeNotFound, ErrCodeObjectNotFound, ErrCodeConnectionNotFound, ErrCodeFileNotFound:
		return ExitResolution
	case ErrCodeInvalidPort, ErrCodeBadDocument, ErrCodeCheckFailed, ErrCodeExportRefused:
		return ExitValidation
	default:
		return ExitInternal
	}
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
