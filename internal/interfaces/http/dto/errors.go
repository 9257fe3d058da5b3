package dto

import "net/http"

// Error codes produced by the HTTP layer itself. Domain failures keep the
// code of their shared.DomainError.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL"
	// ErrCodeValidation is used when request binding tags reject the input
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeInvalidJSON is used when the body cannot be decoded
	ErrCodeInvalidJSON = "INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// Domain error codes as they appear on the wire
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeInsufficientFunds   = "INSUFFICIENT_FUNDS"
	ErrCodeInvalidVault        = "INVALID_VAULT"
	ErrCodeAlreadySettled      = "ALREADY_SETTLED"
	ErrCodeBusy                = "BUSY"
	ErrCodeIntegrityViolation  = "INTEGRITY_VIOLATION"
)

// RetryAfterSeconds is advertised with BUSY responses
const RetryAfterSeconds = 1

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Malformed or rejected input -> 400 Bad Request
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidVault: http.StatusBadRequest,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeNotFound:        http.StatusNotFound,

	// Conflicts with the current state of a resource -> 409 Conflict
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeAlreadySettled:      http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule rejections -> 422 Unprocessable Entity
	ErrCodeInsufficientFunds: http.StatusUnprocessableEntity,
	ErrCodeInvalidState:      http.StatusUnprocessableEntity,

	ErrCodeBusy:               http.StatusServiceUnavailable,
	ErrCodeIntegrityViolation: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes are treated as internal errors.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
