package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/fractionalquest/onboard/pkg/domain"
)

// Store implements ports.ProfileStore on PostgreSQL via sqlx.
//
// The UNIQUE (user_id, field_key) constraint plus ON CONFLICT DO UPDATE gives
// the atomic per-key replace the contract requires: two writers racing on the
// same key resolve at the row level, never exposing a half-written record.
type Store struct {
	db *sqlx.DB
}

// New opens a connection pool and verifies connectivity with a ping.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &Store{db: db}, nil
}

// NewFromDB wraps an existing pool.
func NewFromDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the profile_fields table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS profile_fields (
  user_id TEXT NOT NULL,
  field_key TEXT NOT NULL,
  raw_value TEXT NOT NULL,
  normalized_value TEXT NOT NULL,
  confirmed BOOLEAN NOT NULL DEFAULT false,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  PRIMARY KEY (user_id, field_key)
);
CREATE INDEX IF NOT EXISTS idx_profile_fields_user ON profile_fields(user_id);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// row mirrors the table layout for sqlx scanning.
type row struct {
	UserID          string `db:"user_id"`
	FieldKey        string `db:"field_key"`
	RawValue        string `db:"raw_value"`
	NormalizedValue string `db:"normalized_value"`
	Confirmed       bool   `db:"confirmed"`
	UpdatedAt       sql.NullTime `db:"updated_at"`
}

func (r row) toDomain() domain.ProfileField {
	f := domain.ProfileField{
		UserID:          r.UserID,
		Key:             domain.FieldKey(r.FieldKey),
		RawValue:        r.RawValue,
		NormalizedValue: r.NormalizedValue,
		Confirmed:       r.Confirmed,
	}
	if r.UpdatedAt.Valid {
		f.UpdatedAt = r.UpdatedAt.Time
	}
	return f
}

// GetAll returns the fields for a user. No rows is valid empty state.
func (s *Store) GetAll(ctx context.Context, userID string) ([]domain.ProfileField, error) {
	var rows []row
	err := s.db.SelectContext(ctx, &rows,
		`SELECT user_id, field_key, raw_value, normalized_value, confirmed, updated_at
		 FROM profile_fields WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("select profile fields: %w", err)
	}

	fields := make([]domain.ProfileField, 0, len(rows))
	for _, r := range rows {
		fields = append(fields, r.toDomain())
	}
	return fields, nil
}

// Get returns a single field.
func (s *Store) Get(ctx context.Context, userID string, key domain.FieldKey) (domain.ProfileField, error) {
	var r row
	err := s.db.GetContext(ctx, &r,
		`SELECT user_id, field_key, raw_value, normalized_value, confirmed, updated_at
		 FROM profile_fields WHERE user_id = $1 AND field_key = $2`, userID, string(key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ProfileField{}, domain.ErrFieldNotFound
		}
		return domain.ProfileField{}, fmt.Errorf("select profile field: %w", err)
	}
	return r.toDomain(), nil
}

// Upsert atomically creates or replaces the field keyed by (UserID, Key).
func (s *Store) Upsert(ctx context.Context, field domain.ProfileField) (domain.ProfileField, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profile_fields (user_id, field_key, raw_value, normalized_value, confirmed, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, field_key) DO UPDATE SET
		   raw_value = EXCLUDED.raw_value,
		   normalized_value = EXCLUDED.normalized_value,
		   confirmed = EXCLUDED.confirmed,
		   updated_at = EXCLUDED.updated_at`,
		field.UserID, string(field.Key), field.RawValue, field.NormalizedValue,
		field.Confirmed, field.UpdatedAt)
	if err != nil {
		return domain.ProfileField{}, fmt.Errorf("upsert profile field: %w", err)
	}
	return field, nil
}

// Delete removes all fields for a user.
func (s *Store) Delete(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM profile_fields WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete profile fields: %w", err)
	}
	return nil
}

// ListUsers returns users with at least one persisted field.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	var users []string
	err := s.db.SelectContext(ctx, &users,
		`SELECT DISTINCT user_id FROM profile_fields ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
