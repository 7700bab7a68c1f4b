// Package errors defines error types used throughout the reserve program.
//
// The ReserveError type carries a stable error code, a human-readable message and an
// optional cause. Two errors match under errors.Is when their codes are equal, so callers
// can test for a condition regardless of the details attached to a particular failure.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the reserve program.
const (
	ErrCodePoolAlreadyInitialized = "POOL_ALREADY_INITIALIZED"
	ErrCodePoolNotInitialized     = "POOL_NOT_INITIALIZED"
	ErrCodeInvalidRate            = "INVALID_RATE"
	ErrCodeMathOverflow           = "MATH_OVERFLOW"
	ErrCodeInvalidMint            = "INVALID_MINT"
	ErrCodeInvalidConfig          = "INVALID_CONFIG"
	ErrCodeCustom                 = "CUSTOM"
	ErrCodeContextCanceled        = "CONTEXT_CANCELED"
	ErrCodeDecodeFailed           = "DECODE_FAILED"
	ErrCodeProcessFailed          = "PROCESS_FAILED"
)

// ReserveError represents an error in the reserve program.
type ReserveError struct {
	// Code is a unique error code for this error type.
	Code string

	// Message is a human-readable error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error

	// Details contains additional error context.
	Details map[string]any
}

// Error implements the error interface.
func (e *ReserveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ReserveError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error matches the target.
func (e *ReserveError) Is(target error) bool {
	t, ok := target.(*ReserveError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error carrying the given cause.
// The predefined errors below are shared values, so they are never mutated in place.
func (e *ReserveError) WithCause(cause error) *ReserveError {
	c := *e
	c.Cause = cause
	return &c
}

// WithDetails returns a copy of the error carrying the given details.
func (e *ReserveError) WithDetails(details map[string]any) *ReserveError {
	c := *e
	c.Details = details
	return &c
}

// NewError creates a new ReserveError.
func NewError(code, message string) *ReserveError {
	return &ReserveError{
		Code:    code,
		Message: message,
	}
}

// Pre-defined errors for the pool state machine.
var (
	// ErrPoolAlreadyInitialized is returned when a pool already exists for a base mint.
	ErrPoolAlreadyInitialized = NewError(ErrCodePoolAlreadyInitialized, "pool is already initialized")

	// ErrPoolNotInitialized is returned when liquidity is moved on a pool that was never initialized.
	ErrPoolNotInitialized = NewError(ErrCodePoolNotInitialized, "pool is not initialized")

	// ErrInvalidRate is returned when the quote vault cannot cover a withdrawal.
	// The name is kept for compatibility with deployed clients; the condition is reserve sufficiency.
	ErrInvalidRate = NewError(ErrCodeInvalidRate, "invalid rate")

	// ErrMathOverflow is returned when an amount computation overflows 64 bits.
	ErrMathOverflow = NewError(ErrCodeMathOverflow, "arithmetic overflow")

	// ErrInvalidMint is returned when the base asset is not an initialized mint.
	ErrInvalidMint = NewError(ErrCodeInvalidMint, "invalid base mint")

	// ErrContextCanceled is returned when the context is canceled.
	ErrContextCanceled = NewError(ErrCodeContextCanceled, "context canceled")
)

// InvalidConfig creates an error for a rejected configuration value.
func InvalidConfig(reason string) *ReserveError {
	return NewError(ErrCodeInvalidConfig, fmt.Sprintf("invalid configuration: %s", reason))
}

// Custom creates a custom error with the given message.
func Custom(message string) *ReserveError {
	return NewError(ErrCodeCustom, message)
}

// DecodeFailed creates an error for decoding failures.
func DecodeFailed(what string, cause error) *ReserveError {
	return NewError(ErrCodeDecodeFailed, fmt.Sprintf("failed to decode %s", what)).WithCause(cause)
}

// ProcessFailed creates an error for processing failures.
func ProcessFailed(what string, cause error) *ReserveError {
	return NewError(ErrCodeProcessFailed, fmt.Sprintf("failed to process %s", what)).WithCause(cause)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Code returns the code of the first ReserveError in err's chain, or "" if there is none.
func Code(err error) string {
	var re *ReserveError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
