package models

import (
	"errors"
	"fmt"
)

// ServiceError is a typed error carrying one of the common error codes,
// so handlers can map service failures to HTTP statuses without string matching
type ServiceError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a NOT_FOUND service error
func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{Code: ErrCodeNotFound, Message: message}
}

// NewConflictError creates a CONFLICT service error
func NewConflictError(message string) *ServiceError {
	return &ServiceError{Code: ErrCodeConflict, Message: message}
}

// NewValidationError creates a VALIDATION_ERROR service error
func NewValidationError(message string) *ServiceError {
	return &ServiceError{Code: ErrCodeValidationError, Message: message}
}

// NewStoreUnavailableError creates a STORE_UNAVAILABLE service error
func NewStoreUnavailableError(message string, err error) *ServiceError {
	return &ServiceError{Code: ErrCodeStoreUnavailable, Message: message, Err: err}
}

// NewTimeoutError creates a TIMEOUT service error
func NewTimeoutError(message string, err error) *ServiceError {
	return &ServiceError{Code: ErrCodeTimeout, Message: message, Err: err}
}

// ErrorCodeOf extracts the service error code from an error chain,
// defaulting to INTERNAL_ERROR for untyped errors
func ErrorCodeOf(err error) string {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return ErrCodeInternalError
}
