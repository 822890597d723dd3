package policy

import (
	"fmt"
	"strings"

	"github.com/fractionalquest/onboard/pkg/domain"
)

// enumOptions holds the closed option set per enumerated field, in canonical
// form. Matching is case-insensitive after trimming; the canonical value is
// what gets persisted.
var enumOptions = map[domain.FieldKey][]string{
	domain.FieldTrinity:         {"job_search", "coaching", "lifestyle_change", "just_curious"},
	domain.FieldEmploymentState: {"employed", "between_roles", "fractional_now", "exploring"},
	domain.FieldVertical:        {"saas", "fintech", "healthtech", "ecommerce", "manufacturing", "other"},
	domain.FieldRolePreference:  {"cto", "cfo", "cmo", "coo", "cro", "cpo", "chro", "ciso", "other"},
	domain.FieldExperienceLevel: {"vp", "svp", "c_suite", "board"},
}

// NextStep returns the first step in the fixed order not present in known,
// or the zero FieldKey when all steps are known. Deterministic and pure.
func NextStep(known map[domain.FieldKey]bool) domain.FieldKey {
	for _, step := range domain.Steps() {
		if !known[step] {
			return step
		}
	}
	return ""
}

// Validate applies the per-field rules and returns the canonical value.
//
// Enumerated fields must match one of their closed option set
// (case-insensitively); free-text location must resolve against the known
// location reference. Failures return a *domain.ValidationError whose Reason
// is meant to be surfaced to the asserting caller for correction, never
// silently dropped. No I/O, no side effects.
func Validate(key domain.FieldKey, raw string) (string, error) {
	if _, err := domain.ParseFieldKey(string(key)); err != nil {
		return "", err
	}

	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", &domain.ValidationError{
			Key:    key,
			Reason: "value must not be empty",
		}
	}

	if key == domain.FieldLocation {
		return resolveLocation(raw)
	}

	options := enumOptions[key]
	// Users often answer with spaces or dashes where the canonical form uses
	// underscores ("job search", "c-suite").
	normalized := strings.NewReplacer(" ", "_", "-", "_").Replace(value)
	for _, opt := range options {
		if normalized == opt {
			return opt, nil
		}
	}

	return "", &domain.ValidationError{
		Key:    key,
		Value:  raw,
		Reason: fmt.Sprintf("invalid value; valid options: %s", strings.Join(options, ", ")),
	}
}

// Options returns the closed option set for an enumerated field, or nil for
// free-text fields. The returned slice is a copy.
func Options(key domain.FieldKey) []string {
	opts, ok := enumOptions[key]
	if !ok {
		return nil
	}
	out := make([]string, len(opts))
	copy(out, opts)
	return out
}
