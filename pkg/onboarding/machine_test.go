package onboarding_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractionalquest/onboard/pkg/adapters/memory"
	"github.com/fractionalquest/onboard/pkg/domain"
	"github.com/fractionalquest/onboard/pkg/onboarding"
	"github.com/fractionalquest/onboard/pkg/ports"
)

// validValues maps each step to a value that passes validation.
var validValues = map[domain.FieldKey]string{
	domain.FieldTrinity:         "job_search",
	domain.FieldEmploymentState: "employed",
	domain.FieldVertical:        "saas",
	domain.FieldLocation:        "london",
	domain.FieldRolePreference:  "cto",
	domain.FieldExperienceLevel: "c_suite",
}

func TestMachine_FirstAssertion(t *testing.T) {
	m := onboarding.NewMachine(memory.NewStore())
	ctx := context.Background()

	sess, err := m.AssertField(ctx, "u1", domain.FieldTrinity, "job_search")
	require.NoError(t, err)

	assert.Equal(t, domain.FieldEmploymentState, sess.CurrentStep)
	assert.False(t, sess.Completed)
	assert.True(t, sess.Fields[domain.FieldTrinity].Confirmed)
	assert.Equal(t, "job_search", sess.Fields[domain.FieldTrinity].NormalizedValue)
}

func TestMachine_OutOfOrderAcceptance(t *testing.T) {
	m := onboarding.NewMachine(memory.NewStore())
	ctx := context.Background()

	// Location is step 4 but is stated first.
	sess, err := m.AssertField(ctx, "u1", domain.FieldLocation, "nyc")
	require.NoError(t, err)
	assert.Equal(t, domain.FieldTrinity, sess.CurrentStep,
		"next step must be the first gap, not the step after location")

	// Experience level out of order too; current step unchanged.
	sess, err = m.AssertField(ctx, "u1", domain.FieldExperienceLevel, "c_suite")
	require.NoError(t, err)
	assert.Equal(t, domain.FieldTrinity, sess.CurrentStep)
	assert.True(t, sess.Fields[domain.FieldExperienceLevel].Confirmed)
}

func TestMachine_AllOrderingsComplete(t *testing.T) {
	ctx := context.Background()
	keys := domain.Steps()

	var permute func(prefix, rest []domain.FieldKey, visit func([]domain.FieldKey))
	permute = func(prefix, rest []domain.FieldKey, visit func([]domain.FieldKey)) {
		if len(rest) == 0 {
			visit(prefix)
			return
		}
		for i := range rest {
			next := make([]domain.FieldKey, 0, len(rest)-1)
			next = append(next, rest[:i]...)
			next = append(next, rest[i+1:]...)
			permute(append(prefix, rest[i]), next, visit)
		}
	}

	// Every permutation of the six steps ends completed with a terminal step.
	count := 0
	permute(nil, keys, func(order []domain.FieldKey) {
		count++
		m := onboarding.NewMachine(memory.NewStore())

		var sess *domain.Session
		for _, key := range order {
			var err error
			sess, err = m.AssertField(ctx, "u1", key, validValues[key])
			require.NoError(t, err)
		}

		assert.True(t, sess.Completed, "order %v must complete", order)
		assert.Equal(t, domain.FieldKey(""), sess.CurrentStep)

		got, err := m.GetSession(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, got.Completed)
	})
	assert.Equal(t, 720, count)
}

func TestMachine_Idempotence(t *testing.T) {
	m := onboarding.NewMachine(memory.NewStore())
	ctx := context.Background()

	first, err := m.AssertField(ctx, "u1", domain.FieldTrinity, "job_search")
	require.NoError(t, err)

	second, err := m.AssertField(ctx, "u1", domain.FieldTrinity, "job_search")
	require.NoError(t, err)

	assert.Equal(t, first.CurrentStep, second.CurrentStep)
	assert.Equal(t, first.Completed, second.Completed)
	assert.Len(t, second.Fields, 1, "re-assertion must not duplicate records")

	fields, err := m.Store().GetAll(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, fields, 1)
}

func TestMachine_ReassertionCorrects(t *testing.T) {
	m := onboarding.NewMachine(memory.NewStore())
	ctx := context.Background()

	_, err := m.AssertField(ctx, "u1", domain.FieldLocation, "london")
	require.NoError(t, err)

	sess, err := m.AssertField(ctx, "u1", domain.FieldLocation, "nyc")
	require.NoError(t, err)

	assert.Equal(t, "New York", sess.Fields[domain.FieldLocation].NormalizedValue)
	assert.Len(t, sess.Fields, 1)
}

func TestMachine_Resumability(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	first := onboarding.NewMachine(store)
	for _, key := range []domain.FieldKey{domain.FieldTrinity, domain.FieldVertical, domain.FieldLocation} {
		_, err := first.AssertField(ctx, "u1", key, validValues[key])
		require.NoError(t, err)
	}
	before, err := first.GetSession(ctx, "u1")
	require.NoError(t, err)

	// A fresh machine over the same store simulates a full process restart.
	second := onboarding.NewMachine(store)
	after, err := second.GetSession(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, before.CurrentStep, after.CurrentStep)
	assert.Equal(t, before.Completed, after.Completed)
	assert.Equal(t, domain.FieldEmploymentState, after.CurrentStep)
}

func TestMachine_ValidationRejectionDoesNotMutate(t *testing.T) {
	m := onboarding.NewMachine(memory.NewStore())
	ctx := context.Background()

	_, err := m.AssertField(ctx, "u1", domain.FieldTrinity, "job_search")
	require.NoError(t, err)
	before, err := m.GetSession(ctx, "u1")
	require.NoError(t, err)

	_, err = m.AssertField(ctx, "u1", domain.FieldRolePreference, "astronaut")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.FieldRolePreference, ve.Key)

	after, err := m.GetSession(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, before.CurrentStep, after.CurrentStep)
	assert.Equal(t, len(before.Fields), len(after.Fields))
	assert.NotContains(t, after.Fields, domain.FieldRolePreference)
}

func TestMachine_UnknownField(t *testing.T) {
	m := onboarding.NewMachine(memory.NewStore())

	_, err := m.AssertField(context.Background(), "u1", "favorite_color", "blue")
	assert.ErrorIs(t, err, domain.ErrUnknownField)

	sess, err := m.GetSession(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, sess.Fields)
}

func TestMachine_EmptyUserID(t *testing.T) {
	m := onboarding.NewMachine(memory.NewStore())

	_, err := m.AssertField(context.Background(), "", domain.FieldTrinity, "job_search")
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestMachine_GetSessionUnknownUser(t *testing.T) {
	m := onboarding.NewMachine(memory.NewStore())

	sess, err := m.GetSession(context.Background(), "nobody")
	require.NoError(t, err, "unknown user is valid empty state")
	assert.Equal(t, domain.FieldTrinity, sess.CurrentStep)
	assert.False(t, sess.Completed)
}

func TestMachine_ConcurrentDisjointKeys(t *testing.T) {
	m := onboarding.NewMachine(memory.NewStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, key := range []domain.FieldKey{domain.FieldTrinity, domain.FieldVertical} {
		wg.Add(1)
		go func(k domain.FieldKey) {
			defer wg.Done()
			_, err := m.AssertField(ctx, "u1", k, validValues[k])
			errs <- err
		}(key)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	sess, err := m.GetSession(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, sess.Fields[domain.FieldTrinity].Confirmed)
	assert.True(t, sess.Fields[domain.FieldVertical].Confirmed)
}

func TestMachine_WalkthroughExample(t *testing.T) {
	m := onboarding.NewMachine(memory.NewStore())
	ctx := context.Background()

	sess, err := m.AssertField(ctx, "u1", domain.FieldTrinity, "job_search")
	require.NoError(t, err)
	assert.Equal(t, domain.FieldEmploymentState, sess.CurrentStep)
	assert.False(t, sess.Completed)

	// Out of order: experience level before the middle steps.
	sess, err = m.AssertField(ctx, "u1", domain.FieldExperienceLevel, "c_suite")
	require.NoError(t, err)
	assert.Equal(t, domain.FieldEmploymentState, sess.CurrentStep, "still the first gap")
	assert.True(t, sess.Fields[domain.FieldExperienceLevel].Confirmed)

	for _, key := range []domain.FieldKey{
		domain.FieldRolePreference, domain.FieldLocation,
		domain.FieldVertical, domain.FieldEmploymentState,
	} {
		sess, err = m.AssertField(ctx, "u1", key, validValues[key])
		require.NoError(t, err)
	}
	assert.True(t, sess.Completed)
}

// failingStore wraps a real store and fails upserts on demand.
type failingStore struct {
	ports.ProfileStore
	mu   sync.Mutex
	fail bool
}

func (s *failingStore) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func (s *failingStore) Upsert(ctx context.Context, field domain.ProfileField) (domain.ProfileField, error) {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return domain.ProfileField{}, errors.New("backend unavailable")
	}
	return s.ProfileStore.Upsert(ctx, field)
}

func TestMachine_PersistenceFailureIsRetryable(t *testing.T) {
	store := &failingStore{ProfileStore: memory.NewStore()}
	m := onboarding.NewMachine(store)
	ctx := context.Background()

	store.setFail(true)
	_, err := m.AssertField(ctx, "u1", domain.FieldTrinity, "job_search")
	var pe *domain.PersistenceError
	require.ErrorAs(t, err, &pe)

	// Nothing may be confirmed without a durable write.
	sess, err := m.GetSession(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, sess.Fields)

	// The identical retry succeeds once the backend recovers.
	store.setFail(false)
	sess, err = m.AssertField(ctx, "u1", domain.FieldTrinity, "job_search")
	require.NoError(t, err)
	assert.True(t, sess.Fields[domain.FieldTrinity].Confirmed)
}

func TestMachine_ObserverReceivesSnapshot(t *testing.T) {
	m := onboarding.NewMachine(memory.NewStore())

	var mu sync.Mutex
	var events []domain.FieldConfirmed
	m.OnFieldConfirmed(func(ev domain.FieldConfirmed) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	})

	_, err := m.AssertField(context.Background(), "u1", domain.FieldLocation, "sf")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, domain.FieldLocation, events[0].Field.Key)
	assert.Equal(t, "San Francisco", events[0].Field.NormalizedValue)
	require.NotNil(t, events[0].Session)
	assert.Equal(t, domain.FieldTrinity, events[0].Session.CurrentStep)
}

func TestMachine_ObserverNotCalledOnValidationFailure(t *testing.T) {
	m := onboarding.NewMachine(memory.NewStore())

	called := false
	m.OnFieldConfirmed(func(domain.FieldConfirmed) { called = true })

	_, err := m.AssertField(context.Background(), "u1", domain.FieldTrinity, "nonsense")
	require.Error(t, err)
	assert.False(t, called)
}
