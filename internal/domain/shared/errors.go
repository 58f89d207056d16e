// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation    = errors.New("validation error")
	ErrInvalidID     = errors.New("invalid ID")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrNegativeValue = errors.New("value cannot be negative")
	ErrInvalidRange  = errors.New("invalid range")

	// State errors
	ErrIllegalState      = errors.New("illegal state")
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	ErrSessionLocked     = errors.New("session is locked")

	// Configuration errors
	ErrNotConfigured = errors.New("not configured")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "session", "enrollment", "assessment"
	Op      string // Operation that failed, e.g., "Lock", "Promote"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// TransitionError builds an InvalidTransition error that carries the current
// lifecycle status, so the caller can render a precise message.
func TransitionError(op, currentStatus string) *DomainError {
	return &DomainError{
		Domain:  "enrollment",
		Op:      op,
		Kind:    ErrInvalidTransition,
		Message: fmt.Sprintf("transition allowed only from an active enrollment, current status is %q", currentStatus),
	}
}

// LockedError builds a SessionLocked error for the given operation.
// The lock protects audit immutability and is never bypassed, not even
// for privileged callers.
func LockedError(domain, op, sessionID string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    ErrSessionLocked,
		Message: fmt.Sprintf("session %s is locked and rejects academic mutation", sessionID),
	}
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrInvalidRange)
}

// IsSessionLocked checks if the error is a locked-session rejection.
func IsSessionLocked(err error) bool {
	return errors.Is(err, ErrSessionLocked)
}

// IsInvalidTransition checks if the error is a lifecycle transition rejection.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsNotConfigured checks if the error is a missing-configuration miss.
// Callers decide whether to treat it as a soft default or a hard failure;
// the core never substitutes a default silently.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}
