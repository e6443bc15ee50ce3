package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-risk-ladder/internal/config"
	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/solana/stub"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Solana: config.SolanaConfig{RPCURL: "http://127.0.0.1:1", CallTimeout: time.Second},
		Store:  config.StoreConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "bot.db")},
		Ledger: config.LedgerConfig{MemoryLimit: 10},
		Discovery: config.DiscoveryConfig{
			Interval:       time.Second,
			MinLiquidity:   30,
			Limit:          10,
			AgeWindowSlots: 7200,
			Holders:        "rpc",
			AgeSource:      "slot",
		},
		Engine: config.EngineConfig{
			ContributionLamports: 10_000_000,
			ProbeLamports:        10_000_000,
			CheckpointInterval:   time.Second,
			ConfirmTTL:           time.Minute,
		},
		Jupiter: config.JupiterConfig{RateLimit: 5, Timeout: time.Second},
		HTTP:    config.HTTPConfig{Addr: "127.0.0.1:0"},
	}
}

func TestWatchlistPersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	a := NewApp(testConfig(t), zerolog.Nop())

	added, err := a.WatchlistAdd(ctx, "MintA", "rugged in march")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = a.WatchlistAdd(ctx, "MintA", "again")
	require.NoError(t, err)
	assert.False(t, added)

	entries, err := a.WatchlistList(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "rugged in march", entries[0].Reason)
}

func TestListPositionsRejectsUnknownStatus(t *testing.T) {
	a := NewApp(testConfig(t), zerolog.Nop())

	_, err := a.ListPositions(context.Background(), "bogus")
	assert.Error(t, err)

	views, err := a.ListPositions(context.Background(), "open")
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestOpenStoresUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Driver = "mysql"
	_, _, err := NewApp(cfg, zerolog.Nop()).OpenStores(context.Background())
	assert.Error(t, err)
}

func TestMemoryLedgerWhenNoClickhouse(t *testing.T) {
	ctx := context.Background()
	a := NewApp(testConfig(t), zerolog.Nop())

	ledger, closeLedger, err := a.OpenLedger(ctx)
	require.NoError(t, err)
	defer closeLedger()

	require.NoError(t, ledger.Append(ctx, &domain.ScoreObservation{Mint: "MintA", Score: 61}))
	got, err := ledger.ListByMint(ctx, "MintA")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestBuildEngineRejectsBadKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Solana.PrivateKey = "not-a-key"
	a := NewApp(cfg, zerolog.Nop())

	stores, closeStores, err := a.OpenStores(context.Background())
	require.NoError(t, err)
	defer closeStores()

	_, err = a.BuildEngine(stores, nil)
	assert.Error(t, err)
}

func TestConfirmUnknownBuyFails(t *testing.T) {
	a := NewApp(testConfig(t), zerolog.Nop())
	_, err := a.Confirm(context.Background(), domain.ActionRef{Kind: domain.ActionBuy, Mint: "Nope"}, 1)
	assert.ErrorIs(t, err, domain.ErrStaleReference)
}

func TestAgeSourceDefaultsToSlotWindow(t *testing.T) {
	ctx := context.Background()
	rpc := stub.NewRPCClient()
	rpc.Slot = 7250

	// Opened an hour ago; the slot window ignores it.
	pool := domain.PoolCandidate{Mint: "MintA", Pool: "PoolA", OpenTime: time.Now().Add(-time.Hour).Unix()}

	a := NewApp(testConfig(t), zerolog.Nop())
	age, err := a.ageSource(rpc).AgeMinutes(ctx, pool)
	require.NoError(t, err)
	assert.InDelta(t, 50*0.4/60, age, 1e-9)

	a.Config.Discovery.AgeSource = "open_time"
	age, err = a.ageSource(rpc).AgeMinutes(ctx, pool)
	require.NoError(t, err)
	assert.InDelta(t, 60, age, 0.1)
}
