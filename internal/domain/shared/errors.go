package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so a detailed copy
// still matches its sentinel with errors.Is.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error with a more specific message.
func (e *DomainError) WithDetail(format string, args ...any) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Ledger errors
var (
	ErrInsufficientFunds  = NewDomainError("INSUFFICIENT_FUNDS", "Insufficient funds in vault")
	ErrInvalidVault       = NewDomainError("INVALID_VAULT", "Unknown vault")
	ErrAlreadySettled     = NewDomainError("ALREADY_SETTLED", "Order is already settled")
	ErrBusy               = NewDomainError("BUSY", "Resource is busy, retry later")
	ErrIntegrityViolation = NewDomainError("INTEGRITY_VIOLATION", "Ledger integrity violation")
)

// IsRetryable reports whether err may be retried automatically.
// Only lock contention qualifies; everything else is a caller bug or a
// business-rule rejection.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrBusy)
}

// ErrorCode extracts the domain error code, or "" for non-domain errors.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
