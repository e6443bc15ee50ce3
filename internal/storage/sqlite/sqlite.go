// Package sqlite stores profiles, positions and receipts in a single
// SQLite file for single-host deployments. Pure Go, no cgo.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"solana-risk-ladder/internal/storage"
	"solana-risk-ladder/internal/storage/migrations"
)

// DB wraps sql.DB opened on the sqlite driver.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the database at path and applies migrations.
// Use ":memory:" for an ephemeral database.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{DB: db}, nil
}

// NewStores wires every SQLite store onto one database.
func NewStores(db *DB) storage.Stores {
	return storage.Stores{
		Users:       NewUserStore(db),
		Positions:   NewPositionStore(db),
		Checkpoints: NewCheckpointStore(db),
		Broadcasts:  NewBroadcastStore(db),
		Watchlist:   NewWatchlistStore(db),
	}
}

func isDuplicateKeyError(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	// primary result code only when extended codes are off
	return strings.Contains(se.Error(), "UNIQUE constraint failed")
}

func isNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
