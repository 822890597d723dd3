package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownField is returned when a caller references a field key outside the
// fixed onboarding set. This is a programmer error in the calling layer and is
// never retried automatically.
var ErrUnknownField = errors.New("unknown field key")

// ErrFieldNotFound is returned by stores when a single-key lookup misses.
// An unknown user is not an error: GetAll returns an empty set instead.
var ErrFieldNotFound = errors.New("profile field not found")

// ValidationError represents a single field validation failure.
// The Reason is meant to be surfaced verbatim to the asserting caller so the
// user can correct the value; it is never persisted.
type ValidationError struct {
	Key    FieldKey // Field name
	Reason string   // Human-readable reason for failure
	Value  string   // The raw value that failed validation
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %q)", e.Key, e.Reason, e.Value)
}

// PersistenceError wraps a backend failure. The wrapped assertion is safely
// retryable: the store upsert is idempotent per (user, key).
type PersistenceError struct {
	Op  string // Store operation that failed (e.g. "upsert", "get_all")
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("profile store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps err unless it already carries persistence context.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
