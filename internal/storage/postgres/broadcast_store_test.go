package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

func TestBroadcastStore_LastSuccess(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBroadcastStore(pool)
	ctx := context.Background()

	ref := domain.ActionRef{Kind: domain.ActionSell, Mint: "mint-a", CheckpointPct: 14}

	_, err := store.LastSuccess(ctx, ref)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Insert(ctx, &domain.Broadcast{
		ID: "b-1", Kind: domain.ActionSell, Mint: "mint-a", CheckpointPct: 14,
		Error: "rpc timeout", ConfirmedBy: 5, CreatedAt: 1000,
	}))
	require.NoError(t, store.Insert(ctx, &domain.Broadcast{
		ID: "b-2", Kind: domain.ActionSell, Mint: "mint-a", CheckpointPct: 14,
		Signature: "sig-2", ConfirmedBy: 5, CreatedAt: 2000,
	}))
	require.NoError(t, store.Insert(ctx, &domain.Broadcast{
		ID: "b-3", Kind: domain.ActionBuy, Mint: "mint-a",
		Signature: "sig-3", CreatedAt: 500,
	}))

	got, err := store.LastSuccess(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "sig-2", got.Signature)
	assert.Equal(t, int64(5), got.ConfirmedBy)

	err = store.Insert(ctx, &domain.Broadcast{ID: "b-1", Kind: domain.ActionBuy, Mint: "mint-a"})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	all, err := store.ListByMint(ctx, "mint-a")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "b-3", all[0].ID)
	assert.Equal(t, "b-1", all[1].ID)
	assert.Equal(t, "b-2", all[2].ID)
}
