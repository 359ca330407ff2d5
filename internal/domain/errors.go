package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Webhook event errors (EVENT_*)
	ErrorCodeEventMalformed        ErrorCode = "EVENT_MALFORMED"
	ErrorCodeEventModeMismatch     ErrorCode = "EVENT_MODE_MISMATCH"
	ErrorCodeEventUnknownRemote    ErrorCode = "EVENT_UNKNOWN_REMOTE"
	ErrorCodeEventUnrecognizedType ErrorCode = "EVENT_UNRECOGNIZED_TYPE"

	// Synchronization errors (SYNC_*)
	ErrorCodeSyncRetryLater ErrorCode = "SYNC_RETRY_LATER"

	// Provider errors (PROVIDER_*)
	ErrorCodeProviderNotFound ErrorCode = "PROVIDER_NOT_FOUND"
	ErrorCodeProviderError    ErrorCode = "PROVIDER_ERROR"

	// Validation errors (VALIDATION_*)
	ErrorCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationMissingField ErrorCode = "VALIDATION_MISSING_FIELD"
	ErrorCodeValidationBadInterval  ErrorCode = "VALIDATION_BAD_INTERVAL"

	// Internal errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsRetryLater reports whether an error is the ordering-hazard signal: a handler
// needed a related local row that has not been synced yet, and the provider
// should redeliver the event once it likely exists
func IsRetryLater(err error) bool {
	return IsDomainError(err, ErrorCodeSyncRetryLater)
}

// IsProviderNotFound reports whether an error is a 404-equivalent from the provider
func IsProviderNotFound(err error) bool {
	return IsDomainError(err, ErrorCodeProviderNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationMissingField ||
		code == ErrorCodeValidationBadInterval
}

// RetryLater builds the ordering-hazard signal for a missing dependency
func RetryLater(dependency, providerID string) *DomainError {
	return NewDomainError(ErrorCodeSyncRetryLater,
		fmt.Sprintf("%s %q has not been synced yet, requesting redelivery", dependency, providerID))
}

// MissingField builds the fail-fast error for a payload missing a required key
func MissingField(object, key string) *DomainError {
	return NewDomainError(ErrorCodeValidationMissingField,
		fmt.Sprintf("%s payload is missing required key %q", object, key))
}

// Structured error instances
var (
	ErrEventMalformed     = NewDomainError(ErrorCodeEventMalformed, "event body is not a well-formed provider event")
	ErrEventModeMismatch  = NewDomainError(ErrorCodeEventModeMismatch, "event livemode does not match the channel it arrived on")
	ErrEventUnknownRemote = NewDomainError(ErrorCodeEventUnknownRemote, "provider does not know this event id")
	ErrProviderNotFound   = NewDomainError(ErrorCodeProviderNotFound, "resource not found on provider")
	ErrInternalError      = NewDomainError(ErrorCodeInternalError, "internal error")
	ErrDatabaseError      = NewDomainError(ErrorCodeDatabaseError, "database error")
)

// Common domain errors
var (
	ErrInvalidBillingInterval = errors.New("invalid billing interval")
	ErrUnknownCustomer        = errors.New("customer not found")
	ErrUnknownSubscription    = errors.New("subscription not found")
)
