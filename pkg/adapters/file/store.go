package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fractionalquest/onboard/pkg/domain"
)

// Store implements ports.ProfileStore using the local filesystem.
// It stores each user's profile as one JSON file in a configured directory.
type Store struct {
	BasePath string

	// mu serializes read-modify-write cycles so two upserts racing on the
	// same user never lose a field. Single-process only; multi-replica
	// deployments should use the redis or postgres adapters.
	mu sync.Mutex
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".onboard/profiles".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".onboard", "profiles")
	}
	return &Store{BasePath: basePath}
}

// GetAll returns the fields for a user. A missing file is valid empty state.
func (s *Store) GetAll(ctx context.Context, userID string) ([]domain.ProfileField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, err := s.read(userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ProfileField, 0, len(fields))
	for _, f := range fields {
		out = append(out, f)
	}
	return out, nil
}

// Get returns a single field.
func (s *Store) Get(ctx context.Context, userID string, key domain.FieldKey) (domain.ProfileField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, err := s.read(userID)
	if err != nil {
		return domain.ProfileField{}, err
	}
	f, ok := fields[key]
	if !ok {
		return domain.ProfileField{}, domain.ErrFieldNotFound
	}
	return f, nil
}

// Upsert replaces the field keyed by (UserID, Key) and rewrites the user's
// profile file atomically.
func (s *Store) Upsert(ctx context.Context, field domain.ProfileField) (domain.ProfileField, error) {
	if field.UserID == "" {
		return domain.ProfileField{}, fmt.Errorf("userID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fields, err := s.read(field.UserID)
	if err != nil {
		return domain.ProfileField{}, err
	}
	fields[field.Key] = field

	if err := s.write(field.UserID, fields); err != nil {
		return domain.ProfileField{}, err
	}
	return field, nil
}

// Delete removes the user's profile file.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("userID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(userID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete profile file: %w", err)
	}
	return nil
}

// ListUsers returns all user IDs with a profile file.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	var users []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			name := entry.Name()
			users = append(users, name[:len(name)-len(".json")])
		}
	}
	return users, nil
}

func (s *Store) path(userID string) string {
	return filepath.Join(s.BasePath, userID+".json")
}

func (s *Store) read(userID string) (map[domain.FieldKey]domain.ProfileField, error) {
	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[domain.FieldKey]domain.ProfileField), nil
		}
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	var fields map[domain.FieldKey]domain.ProfileField
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return fields, nil
}

// write persists the profile atomically: temp file, fsync, rename.
func (s *Store) write(userID string, fields map[domain.FieldKey]domain.ProfileField) error {
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure profile directory: %w", err)
	}

	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+userID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		_ = tmpFile.Close()    // Ensure closed
		_ = os.Remove(tmpPath) // Remove if still exists (not renamed)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	// Fsync before rename: durable after acknowledgment.
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename replaces the destination atomically on POSIX. On Windows it
	// fails if the destination exists, so remove first; the delete+rename
	// window is acceptable compared to a partial write.
	if _, err := os.Stat(s.path(userID)); err == nil {
		if err := os.Remove(s.path(userID)); err != nil {
			return fmt.Errorf("failed to remove existing profile file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, s.path(userID)); err != nil {
		return fmt.Errorf("failed to rename temp file to profile: %w", err)
	}

	return nil
}
