package errors

import (
	"errors"
	"fmt"
)

// AppError represents a structured application error with user-friendly and technical details.
type AppError struct {
	TechnicalMessage string
	UserMessage      string
	Code             string
	HTTPStatus       int
	OriginalError    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %v", e.UserMessage, e.OriginalError)
}

// Unwrap returns the original error for error chaining.
func (e *AppError) Unwrap() error {
	return e.OriginalError
}

// NewAppError creates a new AppError instance.
func NewAppError(technicalMessage, userMessage, code string, status int, originalErr error) *AppError {
	return &AppError{
		TechnicalMessage: technicalMessage,
		UserMessage:      userMessage,
		Code:             code,
		HTTPStatus:       status,
		OriginalError:    originalErr,
	}
}

// UpstreamError is a non-2xx response from an external service with the
// upstream's own message preserved for diagnostics. A 404 on a
// single-entity lookup is never an UpstreamError; clients return nil for
// those so callers can distinguish absent from failed.
type UpstreamError struct {
	Service    string
	Operation  string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Service, e.Operation, e.StatusCode, e.Message)
}

// NewUpstreamError creates an UpstreamError for the given service call.
func NewUpstreamError(service, operation string, status int, message string) *UpstreamError {
	return &UpstreamError{
		Service:    service,
		Operation:  operation,
		StatusCode: status,
		Message:    message,
	}
}

// AsUpstreamError unwraps err into an *UpstreamError if one is in the chain.
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	ok := errors.As(err, &ue)
	return ue, ok
}

// AuthError is an authentication failure against the Salesforce OAuth
// endpoint, carrying the upstream error description as metadata.
type AuthError struct {
	Description string
	Err         error
}

func (e *AuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authentication failed: %s", e.Description)
	}
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ValidationError is a caller mistake (missing or malformed input); it maps
// to a 400 and is never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Common error codes
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeCaseNotFound       = "CASE_NOT_FOUND"
	ErrCodeAddressNotFound    = "ADDRESS_NOT_FOUND"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeAuthFailed         = "UPSTREAM_AUTH_FAILED"
	ErrCodeRateLimited        = "RATE_LIMITED"
)
