package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractionalquest/onboard/pkg/domain"
)

// RunProfileStoreContract runs a suite of tests to verify that a ProfileStore
// implementation adheres to the defined interface contract.
func RunProfileStoreContract(t *testing.T, store ProfileStore) {
	ctx := context.Background()
	userID := "contract-test-user-" + time.Now().Format("20060102150405")

	field := func(key domain.FieldKey, value string) domain.ProfileField {
		return domain.ProfileField{
			UserID:          userID,
			Key:             key,
			RawValue:        value,
			NormalizedValue: value,
			Confirmed:       true,
			UpdatedAt:       time.Now().UTC(),
		}
	}

	t.Run("GetAll Unknown User Is Empty", func(t *testing.T) {
		fields, err := store.GetAll(ctx, "nobody-"+userID)
		require.NoError(t, err, "unknown user is valid empty state, not an error")
		assert.Empty(t, fields)
	})

	t.Run("Upsert and GetAll", func(t *testing.T) {
		saved, err := store.Upsert(ctx, field(domain.FieldTrinity, "job_search"))
		require.NoError(t, err)
		assert.Equal(t, domain.FieldTrinity, saved.Key)
		assert.True(t, saved.Confirmed)

		fields, err := store.GetAll(ctx, userID)
		require.NoError(t, err)
		require.Len(t, fields, 1)
		assert.Equal(t, "job_search", fields[0].NormalizedValue)
	})

	t.Run("Upsert Replaces Never Duplicates", func(t *testing.T) {
		_, err := store.Upsert(ctx, field(domain.FieldLocation, "London"))
		require.NoError(t, err)
		_, err = store.Upsert(ctx, field(domain.FieldLocation, "New York"))
		require.NoError(t, err)

		got, err := store.Get(ctx, userID, domain.FieldLocation)
		require.NoError(t, err)
		assert.Equal(t, "New York", got.NormalizedValue)

		fields, err := store.GetAll(ctx, userID)
		require.NoError(t, err)
		count := 0
		for _, f := range fields {
			if f.Key == domain.FieldLocation {
				count++
			}
		}
		assert.Equal(t, 1, count, "at most one record per (user, key)")
	})

	t.Run("Get Missing Field", func(t *testing.T) {
		_, err := store.Get(ctx, userID, domain.FieldVertical)
		assert.ErrorIs(t, err, domain.ErrFieldNotFound)
	})

	t.Run("ListUsers", func(t *testing.T) {
		other := userID + "-other"
		_, err := store.Upsert(ctx, domain.ProfileField{
			UserID:          other,
			Key:             domain.FieldTrinity,
			RawValue:        "coaching",
			NormalizedValue: "coaching",
			Confirmed:       true,
			UpdatedAt:       time.Now().UTC(),
		})
		require.NoError(t, err)
		defer func() { _ = store.Delete(ctx, other) }()

		users, err := store.ListUsers(ctx)
		require.NoError(t, err)
		assert.Contains(t, users, userID)
		assert.Contains(t, users, other)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, userID))

		fields, err := store.GetAll(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, fields, "GetAll after Delete should return empty state")
	})

	t.Run("Concurrent Disjoint Keys", func(t *testing.T) {
		defer func() { _ = store.Delete(ctx, userID) }()

		done := make(chan error, 2)
		go func() {
			_, err := store.Upsert(ctx, field(domain.FieldTrinity, "job_search"))
			done <- err
		}()
		go func() {
			_, err := store.Upsert(ctx, field(domain.FieldVertical, "saas"))
			done <- err
		}()
		require.NoError(t, <-done)
		require.NoError(t, <-done)

		fields, err := store.GetAll(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, fields, 2, "disjoint-key writes must both persist")
	})
}
