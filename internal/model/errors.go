package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a row does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError represents malformed input on a create/update path.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a validation error (including wrapped errors)
func IsValidationError(err error) bool {
	var validationErr ValidationError
	return errors.As(err, &validationErr)
}

// ConflictError represents a transition the current state does not allow.
type ConflictError struct {
	Field   string
	Message string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %s", e.Field, e.Message)
}

// NewConflictError constructs ConflictError
func NewConflictError(field, message string) ConflictError {
	return ConflictError{Field: field, Message: message}
}

// IsConflictError checks if error is ConflictError
func IsConflictError(err error) bool {
	var ce ConflictError
	return errors.As(err, &ce)
}

// NotFoundError represents a missing or not-owned resource.
type NotFoundError struct {
	Field   string
	Message string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("not found %s: %s", e.Field, e.Message)
}

// NewNotFoundError constructs NotFoundError
func NewNotFoundError(field, message string) NotFoundError {
	return NotFoundError{Field: field, Message: message}
}

// IsNotFoundError reports NotFoundError or ErrNotFound anywhere in the chain.
func IsNotFoundError(err error) bool {
	var ne NotFoundError
	return errors.As(err, &ne) || errors.Is(err, ErrNotFound)
}

// UpstreamUnavailableError wraps a weather provider failure. It never reaches end users.
type UpstreamUnavailableError struct {
	Upstream string
	Err      error
}

func (e UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("upstream %s unavailable: %v", e.Upstream, e.Err)
}

func (e UpstreamUnavailableError) Unwrap() error { return e.Err }

// IsUpstreamUnavailable checks if error is UpstreamUnavailableError
func IsUpstreamUnavailable(err error) bool {
	var ue UpstreamUnavailableError
	return errors.As(err, &ue)
}

// PersistenceError wraps a store read/write failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

// IsPersistenceError checks if error is PersistenceError
func IsPersistenceError(err error) bool {
	var pe PersistenceError
	return errors.As(err, &pe)
}
