package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractionalquest/onboard/pkg/domain"
	"github.com/fractionalquest/onboard/pkg/policy"
)

func TestValidate_Location(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"london", "London"},
		{"London", "London"},
		{"  LONDON  ", "London"},
		{"nyc", "New York"},
		{"new   york", "New York"},
		{"sf", "San Francisco"},
		{"bay area", "San Francisco"},
		{"remote", "Remote"},
		{"anywhere", "Remote"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := policy.Validate(domain.FieldLocation, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_LocationUnresolvable(t *testing.T) {
	_, err := policy.Validate(domain.FieldLocation, "atlantis")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.FieldLocation, ve.Key)
	assert.Equal(t, "atlantis", ve.Value)
	assert.Contains(t, ve.Reason, "unrecognized location")
}

func TestLocations_NotEmpty(t *testing.T) {
	locs := policy.Locations()
	assert.NotEmpty(t, locs)
	assert.Contains(t, locs, "London")
}
