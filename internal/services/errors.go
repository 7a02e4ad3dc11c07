package services

import (
	"errors"
	"fmt"
)

// ValidationError reports caller input that violates a precondition. It is
// always returned before any write is issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a validation error (including wrapped errors).
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// OperationError reports a record-store failure during one step of a
// multi-step sequence. Steps already committed are not rolled back; Step
// tells the caller how far the sequence got.
type OperationError struct {
	Op   string
	Step string
	Err  error
}

func (e OperationError) Error() string {
	return fmt.Sprintf("%s failed at %s: %v", e.Op, e.Step, e.Err)
}

func (e OperationError) Unwrap() error { return e.Err }

// NewOperationError wraps a store error with the operation and step it broke.
func NewOperationError(op, step string, err error) OperationError {
	return OperationError{Op: op, Step: step, Err: err}
}

// IsOperationError checks if an error is an operation error.
func IsOperationError(err error) bool {
	var oe OperationError
	return errors.As(err, &oe)
}
