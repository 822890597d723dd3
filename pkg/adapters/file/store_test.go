package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fractionalquest/onboard/pkg/adapters/file"
	"github.com/fractionalquest/onboard/pkg/domain"
	"github.com/fractionalquest/onboard/pkg/ports"
)

// Ensure Store implements ProfileStore
var _ ports.ProfileStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunProfileStoreContract(t, store)
}

func TestFileStore_DefaultPath(t *testing.T) {
	store := file.New("")
	assert.Equal(t, filepath.Join(".onboard", "profiles"), store.BasePath)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := file.New(dir)
	_, err := first.Upsert(ctx, domain.ProfileField{
		UserID:          "u1",
		Key:             domain.FieldLocation,
		RawValue:        "nyc",
		NormalizedValue: "New York",
		Confirmed:       true,
		UpdatedAt:       time.Now().UTC(),
	})
	require.NoError(t, err)

	// A fresh store over the same directory simulates a process restart.
	second := file.New(dir)
	got, err := second.Get(ctx, "u1", domain.FieldLocation)
	require.NoError(t, err)
	assert.Equal(t, "New York", got.NormalizedValue)
	assert.True(t, got.Confirmed)

	// One file per user on disk.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
