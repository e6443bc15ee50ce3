// Package app wires configuration into running components for the CLI
// commands.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"solana-risk-ladder/internal/config"
	"solana-risk-ladder/internal/storage"
	chstore "solana-risk-ladder/internal/storage/clickhouse"
	"solana-risk-ladder/internal/storage/memory"
	"solana-risk-ladder/internal/storage/migrations"
	pgstore "solana-risk-ladder/internal/storage/postgres"
	"solana-risk-ladder/internal/storage/sqlite"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// OpenStores opens the configured transactional backend, applying
// migrations. The returned closer is never nil.
func (a *App) OpenStores(ctx context.Context) (storage.Stores, func(), error) {
	cfg := a.Config.Store
	switch cfg.Driver {
	case "memory":
		a.Logger.Warn().Msg("using in-memory store, state is lost on exit")
		return memory.NewStores(), func() {}, nil

	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return storage.Stores{}, nil, err
		}
		return sqlite.NewStores(db), func() { db.Close() }, nil

	case "postgres":
		pool, err := pgstore.NewPool(ctx, cfg.DSN)
		if err != nil {
			return storage.Stores{}, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return storage.Stores{}, nil, err
		}
		return pgstore.NewStores(pool), pool.Close, nil
	}
	return storage.Stores{}, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// OpenLedger opens the ClickHouse score ledger when configured, otherwise a
// bounded in-memory one.
func (a *App) OpenLedger(ctx context.Context) (storage.ScoreLedger, func(), error) {
	dsn := a.Config.Ledger.ClickhouseDSN
	if dsn == "" {
		return memory.NewScoreLedger(a.Config.Ledger.MemoryLimit), func() {}, nil
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return chstore.NewScoreLedger(conn), func() { conn.Close() }, nil
}
