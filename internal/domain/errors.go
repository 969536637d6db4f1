// Package domain holds the error taxonomy shared by every layer of the
// service. Errors carry a Kind for transport mapping and a stable Code
// so callers can tell "pick different dates" apart from "try again later".
package domain

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies an AppError for transport mapping and retry policy.
type ErrorKind int

const (
	// KindValidation marks bad input detected before any lock or store access.
	KindValidation ErrorKind = iota
	// KindNotFound marks a missing entity.
	KindNotFound
	// KindConflict marks a rejection that may succeed with different input,
	// such as overlapping booking dates.
	KindConflict
	// KindLockTimeout marks a failed lock acquisition. Retryable with the
	// same input.
	KindLockTimeout
	// KindForbidden marks an authorization rejection.
	KindForbidden
	// KindUnauthorized marks a missing or invalid caller identity.
	KindUnauthorized
	// KindUnavailable marks an infrastructure failure (store or lock
	// coordination service unreachable). Retryable later.
	KindUnavailable
)

// Stable error codes surfaced to API clients.
const (
	CodeInvalidDateRange   = "INVALID_DATE_RANGE"
	CodePastCheckIn        = "PAST_CHECK_IN"
	CodeInvalidCoordinates = "INVALID_COORDINATES"
	CodeInvalidRadius      = "INVALID_RADIUS"
	CodeValidation         = "VALIDATION_ERROR"
	CodeLockTimeout        = "LOCK_TIMEOUT"
	CodeBookingConflict    = "BOOKING_CONFLICT"
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeConflict           = "CONFLICT"
	CodeUnavailable        = "UNAVAILABLE"
)

// AppError is the domain error type. It wraps an optional cause so callers
// can still use errors.Is/errors.As against underlying errors.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *AppError) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to an HTTP status code.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindLockTimeout:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may retry the exact same request.
func (e *AppError) Retryable() bool {
	return e.Kind == KindLockTimeout || e.Kind == KindUnavailable
}

// NewValidationError creates a validation error with an explicit code.
func NewValidationError(code, message string) *AppError {
	return &AppError{Kind: KindValidation, Code: code, Message: message}
}

// NewNotFoundError creates a not-found error for the given entity.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

// NewConflictError creates a conflict error with an explicit code.
func NewConflictError(code, message string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: message}
}

// NewLockTimeoutError creates a retryable lock-acquisition timeout error.
func NewLockTimeoutError(key string, err error) *AppError {
	return &AppError{
		Kind:    KindLockTimeout,
		Code:    CodeLockTimeout,
		Message: fmt.Sprintf("could not acquire lock %q, please retry", key),
		Err:     err,
	}
}

// NewForbiddenError creates an authorization rejection.
func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Code: CodeForbidden, Message: message}
}

// NewUnauthorizedError creates a missing/invalid identity error.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Code: CodeUnauthorized, Message: message}
}

// NewUnavailableError creates an infrastructure failure error.
func NewUnavailableError(message string, err error) *AppError {
	return &AppError{Kind: KindUnavailable, Code: CodeUnavailable, Message: message, Err: err}
}
