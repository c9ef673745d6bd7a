// Package errors provides standardized domain errors with codes for the
// sponsor register service.
//
// Usage:
//
//	// In services - return typed errors
//	if norm == "" {
//	    return errors.InvalidInput("no usable company name")
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrSourceNotFound) {
//	    response.BadGateway(w, err.Error(), logger)
//	    return
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	// CodeConfigMissing means a required endpoint or credential is absent.
	// Fatal at bootstrap, never retried.
	CodeConfigMissing Code = "CONFIG_MISSING"
	// CodeInvalidInput means the caller supplied an unusable value, such as
	// a company name that normalizes to the empty string.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeSourceNotFound means the register page was unreachable or carried
	// no CSV link. Aborts ingestion.
	CodeSourceNotFound Code = "SOURCE_NOT_FOUND"
	// CodeFetchFailed means the CSV itself could not be streamed.
	CodeFetchFailed Code = "FETCH_FAILED"
	// CodeUpstream means the sponsor store answered with a server error.
	// Subject to the bounded retry policy before being surfaced.
	CodeUpstream Code = "UPSTREAM_ERROR"
	// CodeRateLimited means the caller's hourly quota is exhausted.
	CodeRateLimited Code = "RATE_LIMITED"

	CodeNotFound     Code = "NOT_FOUND"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeConflict     Code = "CONFLICT"
	CodeInternal     Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeSourceNotFound, CodeFetchFailed, CodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrConfigMissing  = &Error{Code: CodeConfigMissing, Message: "required configuration missing"}
	ErrInvalidInput   = &Error{Code: CodeInvalidInput, Message: "invalid input"}
	ErrSourceNotFound = &Error{Code: CodeSourceNotFound, Message: "register source not found"}
	ErrFetchFailed    = &Error{Code: CodeFetchFailed, Message: "register fetch failed"}
	ErrUpstream       = &Error{Code: CodeUpstream, Message: "upstream error"}
	ErrRateLimited    = &Error{Code: CodeRateLimited, Message: "rate limited"}
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "not found"}
	ErrUnauthorized   = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrConflict       = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal       = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// ConfigMissing creates a missing-configuration error.
func ConfigMissing(msg string) *Error {
	return &Error{Code: CodeConfigMissing, Message: msg}
}

// InvalidInput creates an invalid input error.
func InvalidInput(msg string) *Error {
	return &Error{Code: CodeInvalidInput, Message: msg}
}

// SourceNotFound creates a register-source error.
func SourceNotFound(msg string) *Error {
	return &Error{Code: CodeSourceNotFound, Message: msg}
}

// SourceNotFoundf creates a register-source error with formatted message.
func SourceNotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeSourceNotFound, Message: fmt.Sprintf(format, args...)}
}

// FetchFailed creates a CSV fetch error.
func FetchFailed(msg string) *Error {
	return &Error{Code: CodeFetchFailed, Message: msg}
}

// FetchFailedf creates a CSV fetch error with formatted message.
func FetchFailedf(format string, args ...any) *Error {
	return &Error{Code: CodeFetchFailed, Message: fmt.Sprintf(format, args...)}
}

// Upstream creates an upstream store error.
func Upstream(msg string) *Error {
	return &Error{Code: CodeUpstream, Message: msg}
}

// Upstreamf creates an upstream store error with formatted message.
func Upstreamf(format string, args ...any) *Error {
	return &Error{Code: CodeUpstream, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
