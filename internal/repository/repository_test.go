package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaakkos/brainstorm/internal/domain"
	"github.com/jaakkos/brainstorm/internal/policy"
)

func TestNewCollectionStore_SQLite(t *testing.T) {
	cfg := policy.DefaultConfig()
	cfg.Store.Path = filepath.Join(t.TempDir(), "catalog.sqlite")
	store, closer, err := NewCollectionStore(context.Background(), policy.New(cfg))
	require.NoError(t, err)
	defer func() { _ = closer.Close() }()

	item, err := store.Add(context.Background(), domain.CollectionTechnologies, "Linux")
	require.NoError(t, err)
	items, err := store.List(context.Background(), domain.CollectionTechnologies)
	require.NoError(t, err)
	assert.Equal(t, []domain.ReferenceItem{item}, items)
}

func TestNewCollectionStore_Memory(t *testing.T) {
	cfg := policy.DefaultConfig()
	cfg.Store.Driver = policy.DriverMemory
	store, closer, err := NewCollectionStore(context.Background(), policy.New(cfg))
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.NoError(t, closer.Close())
}

func TestNewCollectionStore_UnknownDriver(t *testing.T) {
	cfg := policy.DefaultConfig()
	cfg.Store.Driver = "mongo"
	_, _, err := NewCollectionStore(context.Background(), policy.New(cfg))
	assert.ErrorIs(t, err, policy.ErrInvalidConfig)
}
