package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fractionalquest/onboard/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.ProfileStore using Redis.
//
// Each user's profile lives in one hash (field key -> JSON record), so an
// upsert is a single HSET: atomic per (user, key), last-write-wins, never a
// half-written record.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for profiles.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for profiles.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "onboard:profile:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(userID string) string {
	return s.prefix + userID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// GetAll returns the fields for a user. A missing hash is valid empty state.
func (s *Store) GetAll(ctx context.Context, userID string) ([]domain.ProfileField, error) {
	raw, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read profile hash: %w", err)
	}

	fields := make([]domain.ProfileField, 0, len(raw))
	for _, val := range raw {
		var f domain.ProfileField
		if err := json.Unmarshal([]byte(val), &f); err != nil {
			return nil, fmt.Errorf("failed to unmarshal profile field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// Get returns a single field.
func (s *Store) Get(ctx context.Context, userID string, key domain.FieldKey) (domain.ProfileField, error) {
	val, err := s.client.HGet(ctx, s.key(userID), string(key)).Result()
	if err != nil {
		if err == backend.Nil {
			return domain.ProfileField{}, domain.ErrFieldNotFound
		}
		return domain.ProfileField{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var f domain.ProfileField
	if err := json.Unmarshal([]byte(val), &f); err != nil {
		return domain.ProfileField{}, fmt.Errorf("failed to unmarshal profile field: %w", err)
	}
	return f, nil
}

// Upsert persists the field via HSET and maintains the user index.
func (s *Store) Upsert(ctx context.Context, field domain.ProfileField) (domain.ProfileField, error) {
	data, err := json.Marshal(field)
	if err != nil {
		return domain.ProfileField{}, fmt.Errorf("failed to marshal profile field: %w", err)
	}

	pipe := s.client.Pipeline()

	// 1. HSET replaces just this field: atomic per (user, key).
	pipe.HSet(ctx, s.key(field.UserID), string(field.Key), data)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(field.UserID), s.ttl)
	}

	// 2. Add to Index (ZSET)
	// Score = Now + TTL. If TTL = 0, Score = +Inf (approx).
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01 (Far enough for now)
	}

	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: field.UserID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return domain.ProfileField{}, fmt.Errorf("failed to save to redis: %w", err)
	}

	return field, nil
}

// Delete removes the user's profile.
func (s *Store) Delete(ctx context.Context, userID string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(userID))
	pipe.ZRem(ctx, s.indexKey(), userID)

	_, err := pipe.Exec(ctx)
	return err
}

// ListUsers returns users with persisted fields.
// Uses ZSET lazy cleanup to drop expired entries from the index.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	// If TTL > 0, we can rely on cleanup.
	// If everything is infinite, this removes nothing.
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired profiles: %w", err)
	}

	users, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	return users, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
