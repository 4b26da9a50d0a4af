// Package errors provides structured error types for aidocs.
//
// Every failure that crosses a package boundary carries a [Code] so the CLI
// can decide whether the run is fatal, whether a single package failed, or
// whether the condition is only a warning:
//
//   - CONFIG_NOT_FOUND, INVALID_CONFIG, LOCK_NOT_FOUND, LOCK_PARSE: fatal for the run
//   - RATE_LIMITED: aborts one package, counted, never fatal
//   - EXPLICIT_FILE_MISSING: aborts one package, makes the run exit non-zero
//   - NETWORK_ERROR, UNEXPECTED_STATUS: degraded to warnings on optional files
//
// # Usage
//
//	err := errors.New(errors.ErrCodeLockParse, "package entry %d has no version", i)
//	if errors.Is(err, errors.ErrCodeLockParse) {
//	    // tell the user to fix Cargo.lock
//	}
//
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidRepo    Code = "INVALID_REPO"
	ErrCodeInvalidPath    Code = "INVALID_PATH"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"

	// Missing inputs
	ErrCodeConfigNotFound Code = "CONFIG_NOT_FOUND"
	ErrCodeLockNotFound   Code = "LOCK_NOT_FOUND"
	ErrCodeLockParse      Code = "LOCK_PARSE"

	// Hosting provider errors
	ErrCodeNetwork             Code = "NETWORK_ERROR"
	ErrCodeRateLimited         Code = "RATE_LIMITED"
	ErrCodeUnexpectedStatus    Code = "UNEXPECTED_STATUS"
	ErrCodeExplicitFileMissing Code = "EXPLICIT_FILE_MISSING"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

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

// coder is implemented by typed errors that carry a code without being *Error.
type coder interface {
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a typed error with a matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no coded error is found in the chain.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coder
	if errors.As(err, &c) {
		return c.Code()
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

// RateLimitHint is appended to every rate-limit message.
const RateLimitHint = "set GITHUB_TOKEN (or GH_TOKEN) to raise the limit from 60 to 5000 requests/hour"

// RateLimitedError is returned when the hosting provider refuses a request
// because the rate limit is exhausted. It is never retried.
type RateLimitedError struct {
	RetryAfter int    // Seconds to wait before retrying, 0 if unknown
	URL        string // Request that was refused
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	msg := "rate limited"
	if e.URL != "" {
		msg += " fetching " + e.URL
	}
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %d seconds)", e.RetryAfter)
	}
	return msg + ": " + RateLimitHint
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}

// ExplicitFileMissingError is returned when a file listed explicitly in the
// configuration does not exist at the resolved reference.
type ExplicitFileMissingError struct {
	Repo string
	Path string
	Ref  string
}

// Error implements the error interface.
func (e *ExplicitFileMissingError) Error() string {
	return fmt.Sprintf("explicit file not found: %q in %s at ref %q; check the files list in your config", e.Path, e.Repo, e.Ref)
}

// Code returns the error code for this error type.
func (e *ExplicitFileMissingError) Code() Code {
	return ErrCodeExplicitFileMissing
}
