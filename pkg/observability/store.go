package observability

import (
	"context"

	"github.com/fractionalquest/onboard/pkg/domain"
	"github.com/fractionalquest/onboard/pkg/ports"
)

// InstrumentedStore wraps a ProfileStore and records operation durations.
type InstrumentedStore struct {
	inner   ports.ProfileStore
	metrics *Metrics
}

// InstrumentStore decorates a store with duration metrics.
func InstrumentStore(inner ports.ProfileStore, metrics *Metrics) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, metrics: metrics}
}

func (s *InstrumentedStore) GetAll(ctx context.Context, userID string) ([]domain.ProfileField, error) {
	defer s.metrics.TimeStoreOp("get_all")()
	return s.inner.GetAll(ctx, userID)
}

func (s *InstrumentedStore) Get(ctx context.Context, userID string, key domain.FieldKey) (domain.ProfileField, error) {
	defer s.metrics.TimeStoreOp("get")()
	return s.inner.Get(ctx, userID, key)
}

func (s *InstrumentedStore) Upsert(ctx context.Context, field domain.ProfileField) (domain.ProfileField, error) {
	defer s.metrics.TimeStoreOp("upsert")()
	return s.inner.Upsert(ctx, field)
}

func (s *InstrumentedStore) Delete(ctx context.Context, userID string) error {
	defer s.metrics.TimeStoreOp("delete")()
	return s.inner.Delete(ctx, userID)
}

func (s *InstrumentedStore) ListUsers(ctx context.Context) ([]string, error) {
	defer s.metrics.TimeStoreOp("list_users")()
	return s.inner.ListUsers(ctx)
}
