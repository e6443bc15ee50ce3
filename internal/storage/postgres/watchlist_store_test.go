package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

func TestWatchlistStore(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWatchlistStore(pool)
	ctx := context.Background()

	listed, err := store.Contains(ctx, "mint-rug")
	require.NoError(t, err)
	assert.False(t, listed)

	require.NoError(t, store.Add(ctx, &domain.WatchlistEntry{Mint: "mint-rug", Reason: "dev dumped", AddedAt: 2000}))
	require.NoError(t, store.Add(ctx, &domain.WatchlistEntry{Mint: "mint-old", AddedAt: 1000}))

	err = store.Add(ctx, &domain.WatchlistEntry{Mint: "mint-rug", AddedAt: 3000})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	listed, err = store.Contains(ctx, "mint-rug")
	require.NoError(t, err)
	assert.True(t, listed)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "mint-old", entries[0].Mint)
	assert.Equal(t, "dev dumped", entries[1].Reason)
}
