package invoice

import (
	"errors"
	"fmt"
)

// Error categories. Typed errors below match these through errors.Is so
// callers can branch on the category without knowing the concrete type.
var (
	// ErrNotFound is returned when a referenced invoice or line item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState is returned when an operation is not permitted in the
	// invoice's current status.
	ErrInvalidState = errors.New("operation not permitted in current status")

	// ErrConcurrentUpdate is returned by repositories when the stored invoice
	// changed since it was loaded.
	ErrConcurrentUpdate = errors.New("invoice was modified concurrently")

	// ErrDuplicateNumber is returned by repositories when an invoice number is
	// already taken.
	ErrDuplicateNumber = errors.New("invoice number already exists")

	// ErrMalformedNumber is the cause carried by ParseError.
	ErrMalformedNumber = errors.New("malformed invoice number")
)

// NotFoundError names the missing entity and the key it was looked up by.
type NotFoundError struct {
	Entity string
	Key    interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %v", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(entity string, key interface{}) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: key}
}

// ValidationError represents rejected input. The caller is expected to
// correct the input and retry.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// InvalidStateError reports an operation attempted from a status that does
// not allow it.
type InvalidStateError struct {
	Op     string
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s invoice in status %s", e.Op, e.Status)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

func newInvalidStateError(op string, status Status) *InvalidStateError {
	return &InvalidStateError{Op: op, Status: status}
}

// DuplicateNumberError names an invoice number that is already stored.
type DuplicateNumberError struct {
	Number string
}

func (e *DuplicateNumberError) Error() string {
	return fmt.Sprintf("invoice number %s already exists", e.Number)
}

func (e *DuplicateNumberError) Is(target error) bool {
	return target == ErrDuplicateNumber
}

// ParseError describes a stored invoice number that could not be parsed.
// Number generation recovers from it by restarting the sequence.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invoice number %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformedNumber
}
