package onboarding

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/fractionalquest/onboard/internal/logging"
	"github.com/fractionalquest/onboard/pkg/domain"
	"github.com/fractionalquest/onboard/pkg/policy"
	"github.com/fractionalquest/onboard/pkg/ports"
	"github.com/fractionalquest/onboard/pkg/session"
)

// Machine is the resumable onboarding state machine.
//
// It holds no persistent state of its own: every session view is recomputed
// from the ProfileStore's current contents plus the fixed step order. That is
// what makes concurrent and resumed access safe by construction: there is no
// session object to lose on restart or reconnect.
type Machine struct {
	store ports.ProfileStore
	locks *session.Manager
	clock func() time.Time

	obsMu     sync.RWMutex
	observers []domain.FieldObserver

	logger *slog.Logger
}

// Option configures the Machine.
type Option func(*Machine)

// WithLockManager injects a custom lock manager (e.g. one backed by a
// distributed locker for multi-replica deployments).
func WithLockManager(m *session.Manager) Option {
	return func(mc *Machine) {
		mc.locks = m
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(mc *Machine) {
		mc.logger = logger
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(clock func() time.Time) Option {
	return func(mc *Machine) {
		mc.clock = clock
	}
}

// NewMachine creates a state machine on top of the given store.
func NewMachine(store ports.ProfileStore, opts ...Option) *Machine {
	m := &Machine{
		store:  store,
		clock:  time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.locks == nil {
		m.locks = session.NewManager()
	}
	return m
}

// OnFieldConfirmed registers a read-only projection. Observers are invoked
// after the durable write, outside the per-user lock.
func (m *Machine) OnFieldConfirmed(fn domain.FieldObserver) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	m.observers = append(m.observers, fn)
}

// AssertField validates and durably records one field value, then returns the
// recomputed session view.
//
// Any of the six field keys is accepted regardless of the current step: a
// user may state their location before being asked. Validation failures
// propagate unchanged with no partial persistence. On a persistence failure
// the identical call is safely retryable because the store write is an
// idempotent per-key upsert.
func (m *Machine) AssertField(ctx context.Context, userID string, key domain.FieldKey, raw string) (*domain.Session, error) {
	if userID == "" {
		return nil, &domain.ValidationError{Key: key, Reason: "user_id must not be empty"}
	}

	parsed, err := domain.ParseFieldKey(string(key))
	if err != nil {
		return nil, err
	}

	normalized, err := policy.Validate(parsed, raw)
	if err != nil {
		return nil, err
	}

	var (
		sess  *domain.Session
		saved domain.ProfileField
	)
	err = m.locks.WithLock(ctx, userID, func(ctx context.Context) error {
		field := domain.ProfileField{
			UserID:          userID,
			Key:             parsed,
			RawValue:        raw,
			NormalizedValue: normalized,
			Confirmed:       true,
			UpdatedAt:       m.clock().UTC(),
		}

		saved, err = m.store.Upsert(ctx, field)
		if err != nil {
			return domain.NewPersistenceError("upsert", err)
		}

		// Recompute from the store's authoritative post-write state so the
		// returned view never diverges from what was persisted.
		fields, err := m.store.GetAll(ctx, userID)
		if err != nil {
			return domain.NewPersistenceError("get_all", err)
		}
		sess = domain.ComputeSession(userID, fields)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("field confirmed",
		"user_id", userID,
		"field_key", parsed,
		"current_step", sess.CurrentStep,
		"completed", sess.Completed,
	)
	m.notify(domain.FieldConfirmed{Field: saved, Session: sess.Snapshot()})

	return sess, nil
}

// GetSession recomputes the session view from the store. It always succeeds
// for a reachable store: an empty profile yields the first step, not an
// error. Reconnection is trivial because every read reconstructs the correct
// step from durable fields.
func (m *Machine) GetSession(ctx context.Context, userID string) (*domain.Session, error) {
	fields, err := m.store.GetAll(ctx, userID)
	if err != nil {
		return nil, domain.NewPersistenceError("get_all", err)
	}
	return domain.ComputeSession(userID, fields), nil
}

// Store returns the underlying profile store.
func (m *Machine) Store() ports.ProfileStore {
	return m.store
}

func (m *Machine) notify(ev domain.FieldConfirmed) {
	m.obsMu.RLock()
	observers := make([]domain.FieldObserver, len(m.observers))
	copy(observers, m.observers)
	m.obsMu.RUnlock()

	for _, fn := range observers {
		fn(ev)
	}
}
