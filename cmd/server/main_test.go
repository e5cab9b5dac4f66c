package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/vetddx/internal/config"
	"github.com/Skufu/vetddx/internal/storage"
)

func TestOpenStoreDefaultsToMemory(t *testing.T) {
	cfg := &config.Config{EnableDB: false, HistorySize: 4}

	store, closeStore, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	defer closeStore()

	_, ok := store.(*storage.MemoryStore)
	assert.True(t, ok)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpenStoreRejectsBadHistorySize(t *testing.T) {
	_, _, err := openStore(context.Background(), &config.Config{HistorySize: 0})
	assert.Error(t, err)
}

func TestOpenStoreBadDatabaseURL(t *testing.T) {
	cfg := &config.Config{EnableDB: true, DatabaseURL: "not a url ::"}
	_, _, err := openStore(context.Background(), cfg)
	assert.Error(t, err)
}
