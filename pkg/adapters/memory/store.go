package memory

import (
	"context"
	"sync"

	"github.com/fractionalquest/onboard/pkg/domain"
)

// Store implements ports.ProfileStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]map[domain.FieldKey]domain.ProfileField
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]map[domain.FieldKey]domain.ProfileField),
	}
}

// GetAll returns the fields for a user. Unknown users yield an empty slice.
func (s *Store) GetAll(ctx context.Context, userID string) ([]domain.ProfileField, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields := s.data[userID]
	out := make([]domain.ProfileField, 0, len(fields))
	for _, f := range fields {
		out = append(out, f)
	}
	return out, nil
}

// Get returns a single field.
func (s *Store) Get(ctx context.Context, userID string, key domain.FieldKey) (domain.ProfileField, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.data[userID][key]
	if !ok {
		return domain.ProfileField{}, domain.ErrFieldNotFound
	}
	return f, nil
}

// Upsert atomically creates or replaces the field keyed by (UserID, Key).
func (s *Store) Upsert(ctx context.Context, field domain.ProfileField) (domain.ProfileField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.data[field.UserID]
	if !ok {
		fields = make(map[domain.FieldKey]domain.ProfileField)
		s.data[field.UserID] = fields
	}
	fields[field.Key] = field
	return field, nil
}

// Delete removes all fields for a user.
func (s *Store) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
	return nil
}

// ListUsers returns users with at least one persisted field.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]string, 0, len(s.data))
	for id := range s.data {
		users = append(users, id)
	}
	return users, nil
}
