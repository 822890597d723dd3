package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractionalquest/onboard/pkg/domain"
)

func confirmed(userID string, key domain.FieldKey, value string) domain.ProfileField {
	return domain.ProfileField{
		UserID:          userID,
		Key:             key,
		RawValue:        value,
		NormalizedValue: value,
		Confirmed:       true,
		UpdatedAt:       time.Now().UTC(),
	}
}

func TestComputeSession_Empty(t *testing.T) {
	sess := domain.ComputeSession("u1", nil)
	assert.Equal(t, domain.FieldTrinity, sess.CurrentStep)
	assert.False(t, sess.Completed)
	assert.Empty(t, sess.Fields)
	assert.Len(t, sess.Steps, domain.NumSteps)
}

func TestComputeSession_SkipsKnownSteps(t *testing.T) {
	// Location confirmed out of order: current step stays the first gap.
	sess := domain.ComputeSession("u1", []domain.ProfileField{
		confirmed("u1", domain.FieldLocation, "London"),
	})
	assert.Equal(t, domain.FieldTrinity, sess.CurrentStep)
	assert.False(t, sess.Completed)

	sess = domain.ComputeSession("u1", []domain.ProfileField{
		confirmed("u1", domain.FieldTrinity, "job_search"),
		confirmed("u1", domain.FieldLocation, "London"),
	})
	assert.Equal(t, domain.FieldEmploymentState, sess.CurrentStep)
}

func TestComputeSession_UnconfirmedFieldDoesNotCount(t *testing.T) {
	f := confirmed("u1", domain.FieldTrinity, "job_search")
	f.Confirmed = false
	sess := domain.ComputeSession("u1", []domain.ProfileField{f})
	assert.Equal(t, domain.FieldTrinity, sess.CurrentStep)
	assert.False(t, sess.Completed)
}

func TestComputeSession_Completed(t *testing.T) {
	fields := []domain.ProfileField{
		confirmed("u1", domain.FieldTrinity, "job_search"),
		confirmed("u1", domain.FieldEmploymentState, "employed"),
		confirmed("u1", domain.FieldVertical, "saas"),
		confirmed("u1", domain.FieldLocation, "London"),
		confirmed("u1", domain.FieldRolePreference, "cto"),
		confirmed("u1", domain.FieldExperienceLevel, "c_suite"),
	}
	sess := domain.ComputeSession("u1", fields)
	assert.True(t, sess.Completed)
	assert.Equal(t, domain.FieldKey(""), sess.CurrentStep)
	assert.NotEmpty(t, sess.Summary)
	assert.Contains(t, sess.Summary, "trinity=job_search")
}

func TestComputeSession_IgnoresUnknownKeys(t *testing.T) {
	sess := domain.ComputeSession("u1", []domain.ProfileField{
		confirmed("u1", "favorite_color", "blue"),
	})
	assert.Empty(t, sess.Fields)
	assert.Equal(t, domain.FieldTrinity, sess.CurrentStep)
}

func TestParseFieldKey(t *testing.T) {
	key, err := domain.ParseFieldKey(" Trinity ")
	require.NoError(t, err)
	assert.Equal(t, domain.FieldTrinity, key)

	_, err = domain.ParseFieldKey("favorite_color")
	assert.ErrorIs(t, err, domain.ErrUnknownField)
}

func TestSession_Snapshot_Isolated(t *testing.T) {
	sess := domain.ComputeSession("u1", []domain.ProfileField{
		confirmed("u1", domain.FieldTrinity, "job_search"),
	})
	snap := sess.Snapshot()
	snap.Fields[domain.FieldVertical] = confirmed("u1", domain.FieldVertical, "saas")
	snap.Steps[0] = "mutated"

	assert.NotContains(t, sess.Fields, domain.FieldVertical)
	assert.Equal(t, domain.FieldTrinity, sess.Steps[0])
}

func TestSteps_ReturnsCopy(t *testing.T) {
	first := domain.Steps()
	first[0] = "mutated"
	assert.Equal(t, domain.FieldTrinity, domain.Steps()[0])
}
