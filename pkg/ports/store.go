package ports

import (
	"context"

	"github.com/fractionalquest/onboard/pkg/domain"
)

// ProfileStore defines the interface for persisting confirmed profile fields.
// It is the single source of truth for onboarding progress; the state machine
// holds no persistent state of its own.
type ProfileStore interface {
	// GetAll returns the current known fields for a user. An unknown user is
	// valid, empty state: implementations return an empty slice, not an error.
	GetAll(ctx context.Context, userID string) ([]domain.ProfileField, error)

	// Get returns a single field.
	// Returns domain.ErrFieldNotFound if it has never been asserted.
	Get(ctx context.Context, userID string, key domain.FieldKey) (domain.ProfileField, error)

	// Upsert atomically creates or replaces the field keyed by
	// (field.UserID, field.Key). Concurrent upserts to different keys may
	// interleave freely; concurrent upserts to the same key resolve
	// last-write-wins and never expose a half-written record.
	Upsert(ctx context.Context, field domain.ProfileField) (domain.ProfileField, error)

	// Delete removes all fields for a user. Administrative operation; the
	// onboarding flow itself never deletes.
	Delete(ctx context.Context, userID string) error

	// ListUsers returns the IDs of users with at least one persisted field.
	ListUsers(ctx context.Context) ([]string, error)
}
