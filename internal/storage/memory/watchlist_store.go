package memory

import (
	"context"
	"sort"
	"sync"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

// WatchlistStore is an in-memory implementation of storage.WatchlistStore.
type WatchlistStore struct {
	mu    sync.RWMutex
	mints map[string]*domain.WatchlistEntry
}

// NewWatchlistStore creates a new in-memory watchlist store.
func NewWatchlistStore() *WatchlistStore {
	return &WatchlistStore{
		mints: make(map[string]*domain.WatchlistEntry),
	}
}

// Add records a mint. Returns ErrDuplicateKey if already listed.
func (s *WatchlistStore) Add(_ context.Context, e *domain.WatchlistEntry) error {
	if e == nil || e.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.mints[e.Mint]; exists {
		return storage.ErrDuplicateKey
	}

	entryCopy := *e
	s.mints[e.Mint] = &entryCopy
	return nil
}

// Contains reports whether a mint is listed.
func (s *WatchlistStore) Contains(_ context.Context, mint string) (bool, error) {
	if mint == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.mints[mint]
	return exists, nil
}

// List returns all entries ordered by added_at ASC.
func (s *WatchlistStore) List(_ context.Context) ([]*domain.WatchlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.WatchlistEntry, 0, len(s.mints))
	for _, e := range s.mints {
		entryCopy := *e
		result = append(result, &entryCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].AddedAt != result[j].AddedAt {
			return result[i].AddedAt < result[j].AddedAt
		}
		return result[i].Mint < result[j].Mint
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.WatchlistStore = (*WatchlistStore)(nil)
