// Package shared provides common domain types used across all audit-service domain packages.
package shared

import (
	"errors"
	"fmt"
)

// Common domain errors.
var (
	// Filter validation errors. An invalid sort column has no sentinel: it
	// is corrected to the category default instead of failing the request.
	ErrInvalidCategory    = errors.New("unknown log category")
	ErrInvalidColumnScope = errors.New("column scope is not allowed for this category")
	ErrInvalidDateRange   = errors.New("date range start is after end")
	ErrInvalidFilter      = errors.New("filter is not applicable to this category")

	// Purge errors
	ErrUnconfirmed     = errors.New("purge has not been confirmed")
	ErrEmptyPurgeScope = errors.New("purge scope is empty and all-records mode was not selected")

	// Store errors
	ErrStoreUnavailable = errors.New("event store is unavailable")

	// Transport errors
	ErrSessionKeyNotFound = errors.New("session key not found")
	ErrBadEnvelope        = errors.New("payload envelope could not be opened")
)

// DomainError wraps domain-specific errors with additional context.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError.
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
