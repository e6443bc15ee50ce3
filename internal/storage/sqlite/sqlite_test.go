package sqlite

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
	"solana-risk-ladder/internal/storage/migrations"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testPosition(mint string, status domain.PositionStatus, createdAt int64) *domain.Position {
	return &domain.Position{
		Mint:          mint,
		Pool:          "pool-" + mint,
		Score:         61,
		EntryPrice:    decimal.RequireFromString("0.0000625"),
		TokenAmount:   decimal.NewFromInt(320000000000),
		SpentLamports: decimal.NewFromInt(20000000),
		Contributors: []domain.Contributor{
			{UserID: 1, RiskThreshold: 10, CashoutTarget: 40},
			{UserID: 2, RiskThreshold: 60, CashoutTarget: 7},
		},
		Payload:   "AQID",
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, migrations.RunSQLiteMigrations(context.Background(), db.DB))
}

func TestUserStore(t *testing.T) {
	db := openTestDB(t)
	store := NewUserStore(db)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, domain.NewUserProfile(20, 1000)))
	require.NoError(t, store.Create(ctx, domain.NewUserProfile(10, 1000)))
	assert.ErrorIs(t, store.Create(ctx, domain.NewUserProfile(10, 2000)), storage.ErrDuplicateKey)

	u, err := store.Get(ctx, 10)
	require.NoError(t, err)
	u.RiskThreshold = 5
	u.UpdatedAt = 3000
	require.NoError(t, store.Update(ctx, u))

	got, err := store.Get(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, got.RiskThreshold)
	assert.Equal(t, int64(3000), got.UpdatedAt)

	_, err = store.Get(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, domain.NewUserProfile(99, 0)), storage.ErrNotFound)

	bad := domain.NewUserProfile(30, 0)
	bad.CashoutTarget = 301
	assert.ErrorIs(t, store.Create(ctx, bad), storage.ErrInvalidInput)

	users, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(10), users[0].ID)
	assert.Equal(t, int64(20), users[1].ID)
}

func TestPositionStore_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	store := NewPositionStore(db)
	ctx := context.Background()

	p := testPosition("mint-a", domain.PositionPending, 1000)
	require.NoError(t, store.Create(ctx, p))
	assert.ErrorIs(t, store.Create(ctx, testPosition("mint-a", domain.PositionPending, 1100)), storage.ErrDuplicateKey)

	got, err := store.Get(ctx, "mint-a")
	require.NoError(t, err)
	assert.True(t, p.EntryPrice.Equal(got.EntryPrice))
	assert.True(t, p.TokenAmount.Equal(got.TokenAmount))
	assert.Equal(t, p.Contributors, got.Contributors)

	require.NoError(t, store.Transition(ctx, "mint-a", domain.PositionPending, domain.PositionExpired, 2000))
	assert.ErrorIs(t, store.Transition(ctx, "mint-a", domain.PositionPending, domain.PositionOpen, 2000), storage.ErrDuplicateKey)
	assert.ErrorIs(t, store.Transition(ctx, "nope", domain.PositionPending, domain.PositionOpen, 2000), storage.ErrNotFound)

	// expired positions are replaceable
	replacement := testPosition("mint-a", domain.PositionPending, 3000)
	replacement.Score = 88
	require.NoError(t, store.Create(ctx, replacement))

	got, err = store.Get(ctx, "mint-a")
	require.NoError(t, err)
	assert.Equal(t, 88, got.Score)
	assert.Equal(t, domain.PositionPending, got.Status)

	require.NoError(t, store.Create(ctx, testPosition("mint-b", domain.PositionOpen, 500)))

	open, err := store.ListByStatus(ctx, domain.PositionOpen)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "mint-b", open[0].Mint)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "mint-b", all[0].Mint)
}

func TestPositionStore_ConcurrentCreateOneWinner(t *testing.T) {
	db := openTestDB(t)
	store := NewPositionStore(db)
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Create(ctx, testPosition("mint-race", domain.PositionPending, 1000)); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestCheckpointStore(t *testing.T) {
	db := openTestDB(t)
	store := NewCheckpointStore(db)
	ctx := context.Background()

	exec := func(pct int) *domain.CheckpointExecution {
		return &domain.CheckpointExecution{
			Mint:          "mint-a",
			CheckpointPct: pct,
			Sellers:       []domain.Contributor{{UserID: 2, RiskThreshold: 60, CashoutTarget: 7}},
			SellTokens:    decimal.NewFromInt(160000000000),
			GainPct:       8.25,
			PriceNow:      decimal.RequireFromString("0.00006765625"),
			Payload:       "BAUG",
			CreatedAt:     4000,
		}
	}

	require.NoError(t, store.Create(ctx, exec(14)))
	require.NoError(t, store.Create(ctx, exec(7)))
	assert.ErrorIs(t, store.Create(ctx, exec(7)), storage.ErrDuplicateKey)
	assert.ErrorIs(t, store.Create(ctx, &domain.CheckpointExecution{Mint: "mint-a"}), storage.ErrInvalidInput)

	got, err := store.Get(ctx, "mint-a", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Sellers[0].UserID)
	assert.True(t, got.PriceNow.Equal(decimal.RequireFromString("0.00006765625")))

	_, err = store.Get(ctx, "mint-a", 21)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	list, err := store.ListByMint(ctx, "mint-a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 7, list[0].CheckpointPct)
	assert.Equal(t, 14, list[1].CheckpointPct)
}

func TestBroadcastStore(t *testing.T) {
	db := openTestDB(t)
	store := NewBroadcastStore(db)
	ctx := context.Background()

	ref := domain.ActionRef{Kind: domain.ActionBuy, Mint: "mint-a"}

	require.NoError(t, store.Insert(ctx, &domain.Broadcast{ID: "1", Kind: domain.ActionBuy, Mint: "mint-a", Error: "blockhash not found", CreatedAt: 1}))
	_, err := store.LastSuccess(ctx, ref)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Insert(ctx, &domain.Broadcast{ID: "2", Kind: domain.ActionBuy, Mint: "mint-a", Signature: "sig", ConfirmedBy: 9, CreatedAt: 2}))
	assert.ErrorIs(t, store.Insert(ctx, &domain.Broadcast{ID: "2", Kind: domain.ActionBuy, Mint: "mint-a"}), storage.ErrDuplicateKey)

	got, err := store.LastSuccess(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "sig", got.Signature)

	list, err := store.ListByMint(ctx, "mint-a")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestWatchlistStore(t *testing.T) {
	db := openTestDB(t)
	store := NewWatchlistStore(db)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, &domain.WatchlistEntry{Mint: "rug", Reason: "lp pulled", AddedAt: 5}))
	assert.ErrorIs(t, store.Add(ctx, &domain.WatchlistEntry{Mint: "rug", AddedAt: 6}), storage.ErrDuplicateKey)

	ok, err := store.Contains(ctx, "rug")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Contains(ctx, "fine")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "lp pulled", list[0].Reason)
}

func TestNewStores(t *testing.T) {
	stores := NewStores(openTestDB(t))
	assert.NotNil(t, stores.Users)
	assert.NotNil(t, stores.Positions)
	assert.NotNil(t, stores.Checkpoints)
	assert.NotNil(t, stores.Broadcasts)
	assert.NotNil(t, stores.Watchlist)
}
