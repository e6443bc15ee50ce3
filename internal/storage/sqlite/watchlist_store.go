package sqlite

import (
	"context"
	"fmt"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

// WatchlistStore implements storage.WatchlistStore using SQLite.
type WatchlistStore struct {
	db *DB
}

// NewWatchlistStore creates a new WatchlistStore.
func NewWatchlistStore(db *DB) *WatchlistStore {
	return &WatchlistStore{db: db}
}

var _ storage.WatchlistStore = (*WatchlistStore)(nil)

// Add records a mint. Returns ErrDuplicateKey if already listed.
func (s *WatchlistStore) Add(ctx context.Context, e *domain.WatchlistEntry) error {
	if e == nil || e.Mint == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO watchlist (mint, reason, added_at) VALUES (?, ?, ?)`, e.Mint, e.Reason, e.AddedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert watchlist entry: %w", err)
	}
	return nil
}

// Contains reports whether a mint is listed.
func (s *WatchlistStore) Contains(ctx context.Context, mint string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM watchlist WHERE mint = ?`, mint).Scan(&count); err != nil {
		return false, fmt.Errorf("check watchlist: %w", err)
	}
	return count > 0, nil
}

// List returns all entries ordered by added_at ASC.
func (s *WatchlistStore) List(ctx context.Context) ([]*domain.WatchlistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT mint, reason, added_at FROM watchlist ORDER BY added_at ASC, mint ASC`)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	var result []*domain.WatchlistEntry
	for rows.Next() {
		var e domain.WatchlistEntry
		if err := rows.Scan(&e.Mint, &e.Reason, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("scan watchlist entry: %w", err)
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}
