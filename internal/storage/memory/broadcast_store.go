package memory

import (
	"context"
	"sort"
	"sync"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

// BroadcastStore is an in-memory implementation of storage.BroadcastStore.
type BroadcastStore struct {
	mu   sync.RWMutex
	data []*domain.Broadcast
	ids  map[string]struct{}
}

// NewBroadcastStore creates a new in-memory broadcast store.
func NewBroadcastStore() *BroadcastStore {
	return &BroadcastStore{
		ids: make(map[string]struct{}),
	}
}

// Insert appends a receipt. Returns ErrDuplicateKey if id exists.
func (s *BroadcastStore) Insert(_ context.Context, b *domain.Broadcast) error {
	if b == nil || b.ID == "" || b.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[b.ID]; exists {
		return storage.ErrDuplicateKey
	}

	bCopy := *b
	s.data = append(s.data, &bCopy)
	s.ids[b.ID] = struct{}{}
	return nil
}

// LastSuccess returns the earliest successful receipt for an action.
func (s *BroadcastStore) LastSuccess(_ context.Context, ref domain.ActionRef) (*domain.Broadcast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.data {
		if b.Ref() == ref && b.Succeeded() {
			bCopy := *b
			return &bCopy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// ListByMint retrieves receipts for a mint, ordered by created_at ASC.
func (s *BroadcastStore) ListByMint(_ context.Context, mint string) ([]*domain.Broadcast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Broadcast
	for _, b := range s.data {
		if b.Mint == mint {
			bCopy := *b
			result = append(result, &bCopy)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt < result[j].CreatedAt
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.BroadcastStore = (*BroadcastStore)(nil)
