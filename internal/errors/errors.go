// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// ErrAccountRequired is returned by every operation scoped to an account
// when the account name is empty.
var ErrAccountRequired = errors.New("account is required")

// ValidationError represents a rejected input record. Validation errors are
// recovered locally: the record is skipped and counted, never fatal to the
// batch.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ConsistencyError represents a violated matching invariant, e.g. a negative
// remaining quantity. This is a programming-bug class of error: it aborts the
// run and propagates to the caller rather than being tolerated.
type ConsistencyError struct {
	Symbol    string
	Invariant string
	Detail    string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency error [%s] %s: %s", e.Symbol, e.Invariant, e.Detail)
}

// NewConsistencyError creates a new ConsistencyError.
func NewConsistencyError(symbol, invariant, detail string) *ConsistencyError {
	return &ConsistencyError{
		Symbol:    symbol,
		Invariant: invariant,
		Detail:    detail,
	}
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
