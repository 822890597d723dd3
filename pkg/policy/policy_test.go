package policy_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractionalquest/onboard/pkg/domain"
	"github.com/fractionalquest/onboard/pkg/policy"
)

func TestNextStep(t *testing.T) {
	tests := []struct {
		name  string
		known []domain.FieldKey
		want  domain.FieldKey
	}{
		{
			name:  "empty profile yields first step",
			known: nil,
			want:  domain.FieldTrinity,
		},
		{
			name:  "first step known",
			known: []domain.FieldKey{domain.FieldTrinity},
			want:  domain.FieldEmploymentState,
		},
		{
			name:  "out of order knowledge skips known steps",
			known: []domain.FieldKey{domain.FieldLocation, domain.FieldExperienceLevel},
			want:  domain.FieldTrinity,
		},
		{
			name: "only last step missing",
			known: []domain.FieldKey{
				domain.FieldTrinity, domain.FieldEmploymentState, domain.FieldVertical,
				domain.FieldLocation, domain.FieldRolePreference,
			},
			want: domain.FieldExperienceLevel,
		},
		{
			name: "all known is terminal",
			known: []domain.FieldKey{
				domain.FieldTrinity, domain.FieldEmploymentState, domain.FieldVertical,
				domain.FieldLocation, domain.FieldRolePreference, domain.FieldExperienceLevel,
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			known := make(map[domain.FieldKey]bool, len(tt.known))
			for _, k := range tt.known {
				known[k] = true
			}
			assert.Equal(t, tt.want, policy.NextStep(known))
		})
	}
}

func TestNextStep_Deterministic(t *testing.T) {
	known := map[domain.FieldKey]bool{domain.FieldVertical: true}
	first := policy.NextStep(known)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, policy.NextStep(known))
	}
}

func TestValidate_Enums(t *testing.T) {
	tests := []struct {
		name    string
		key     domain.FieldKey
		raw     string
		want    string
		wantErr bool
	}{
		{name: "canonical value", key: domain.FieldTrinity, raw: "job_search", want: "job_search"},
		{name: "case insensitive", key: domain.FieldTrinity, raw: "Job_Search", want: "job_search"},
		{name: "surrounding whitespace", key: domain.FieldTrinity, raw: "  coaching  ", want: "coaching"},
		{name: "spaces become underscores", key: domain.FieldTrinity, raw: "lifestyle change", want: "lifestyle_change"},
		{name: "dashes become underscores", key: domain.FieldExperienceLevel, raw: "C-Suite", want: "c_suite"},
		{name: "role preference", key: domain.FieldRolePreference, raw: "CTO", want: "cto"},
		{name: "employment status", key: domain.FieldEmploymentState, raw: "between roles", want: "between_roles"},
		{name: "vertical", key: domain.FieldVertical, raw: "FinTech", want: "fintech"},
		{name: "unrecognized enum value", key: domain.FieldRolePreference, raw: "astronaut", wantErr: true},
		{name: "empty value", key: domain.FieldTrinity, raw: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := policy.Validate(tt.key, tt.raw)
			if tt.wantErr {
				var ve *domain.ValidationError
				require.Error(t, err)
				require.True(t, errors.As(err, &ve), "want *domain.ValidationError, got %T", err)
				assert.Equal(t, tt.key, ve.Key)
				assert.NotEmpty(t, ve.Reason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_EnumErrorListsOptions(t *testing.T) {
	_, err := policy.Validate(domain.FieldRolePreference, "warlord")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	// The reason is surfaced to the user for correction; it should name the
	// acceptable values.
	assert.Contains(t, ve.Reason, "cto")
	assert.Contains(t, ve.Reason, "ciso")
}

func TestValidate_UnknownKey(t *testing.T) {
	_, err := policy.Validate("favorite_color", "blue")
	assert.ErrorIs(t, err, domain.ErrUnknownField)
}

func TestOptions(t *testing.T) {
	opts := policy.Options(domain.FieldTrinity)
	assert.Equal(t, []string{"job_search", "coaching", "lifestyle_change", "just_curious"}, opts)

	// Free-text fields have no closed option set.
	assert.Nil(t, policy.Options(domain.FieldLocation))

	// Returned slice is a copy; mutating it must not poison the policy.
	opts[0] = "corrupted"
	_, err := policy.Validate(domain.FieldTrinity, "job_search")
	assert.NoError(t, err)
}
