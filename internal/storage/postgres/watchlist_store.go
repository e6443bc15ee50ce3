package postgres

import (
	"context"
	"fmt"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

// WatchlistStore implements storage.WatchlistStore using PostgreSQL.
type WatchlistStore struct {
	pool *Pool
}

// NewWatchlistStore creates a new WatchlistStore.
func NewWatchlistStore(pool *Pool) *WatchlistStore {
	return &WatchlistStore{pool: pool}
}

var _ storage.WatchlistStore = (*WatchlistStore)(nil)

// Add records a mint. Returns ErrDuplicateKey if already listed.
func (s *WatchlistStore) Add(ctx context.Context, e *domain.WatchlistEntry) error {
	if e == nil || e.Mint == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO watchlist (mint, reason, added_at) VALUES ($1, $2, $3)
	`, e.Mint, e.Reason, e.AddedAt)
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
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM watchlist WHERE mint = $1)`, mint).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check watchlist: %w", err)
	}
	return exists, nil
}

// List returns all entries ordered by added_at ASC.
func (s *WatchlistStore) List(ctx context.Context) ([]*domain.WatchlistEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT mint, reason, added_at FROM watchlist ORDER BY added_at ASC, mint ASC
	`)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist: %w", err)
	}
	return result, nil
}
