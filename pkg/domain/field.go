package domain

import (
	"fmt"
	"strings"
	"time"
)

// FieldKey identifies one of the fixed onboarding data points collected per user.
type FieldKey string

const (
	FieldTrinity         FieldKey = "trinity"
	FieldEmploymentState FieldKey = "employment_status"
	FieldVertical        FieldKey = "vertical"
	FieldLocation        FieldKey = "location"
	FieldRolePreference  FieldKey = "role_preference"
	FieldExperienceLevel FieldKey = "experience_level"
)

// steps is the fixed onboarding order. Defined once, never mutated at runtime.
var steps = [...]FieldKey{
	FieldTrinity,
	FieldEmploymentState,
	FieldVertical,
	FieldLocation,
	FieldRolePreference,
	FieldExperienceLevel,
}

// Steps returns the onboarding steps in their fixed order.
// The returned slice is a copy; callers may not reorder the flow.
func Steps() []FieldKey {
	out := make([]FieldKey, len(steps))
	copy(out, steps[:])
	return out
}

// NumSteps is the number of onboarding steps.
const NumSteps = len(steps)

// ParseFieldKey validates a raw key against the closed enumeration.
// Returns ErrUnknownField for anything outside the fixed set.
func ParseFieldKey(raw string) (FieldKey, error) {
	key := FieldKey(strings.ToLower(strings.TrimSpace(raw)))
	for _, s := range steps {
		if key == s {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, raw)
}

// ProfileField is one confirmed datum about a user.
// At most one exists per (UserID, Key); a later assertion overwrites it.
type ProfileField struct {
	UserID          string    `json:"user_id"`
	Key             FieldKey  `json:"field_key"`
	RawValue        string    `json:"raw_value"`
	NormalizedValue string    `json:"normalized_value,omitempty"`
	Confirmed       bool      `json:"confirmed"`
	UpdatedAt       time.Time `json:"updated_at"`
}
