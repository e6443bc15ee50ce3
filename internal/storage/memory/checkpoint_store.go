package memory

import (
	"context"
	"sort"
	"sync"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

type checkpointKey struct {
	mint string
	pct  int
}

// CheckpointStore is an in-memory implementation of storage.CheckpointStore.
type CheckpointStore struct {
	mu   sync.RWMutex
	data map[checkpointKey]*domain.CheckpointExecution
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		data: make(map[checkpointKey]*domain.CheckpointExecution),
	}
}

// Create adds a new execution. Returns ErrDuplicateKey if (mint, pct) exists.
func (s *CheckpointStore) Create(_ context.Context, e *domain.CheckpointExecution) error {
	if e == nil || e.Mint == "" || e.CheckpointPct <= 0 {
		return storage.ErrInvalidInput
	}

	key := checkpointKey{mint: e.Mint, pct: e.CheckpointPct}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[key] = e.Clone()
	return nil
}

// Get retrieves an execution. Returns ErrNotFound if not exists.
func (s *CheckpointStore) Get(_ context.Context, mint string, pct int) (*domain.CheckpointExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[checkpointKey{mint: mint, pct: pct}]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return e.Clone(), nil
}

// ListByMint retrieves executions for a mint, ordered by checkpoint_pct ASC.
func (s *CheckpointStore) ListByMint(_ context.Context, mint string) ([]*domain.CheckpointExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CheckpointExecution
	for k, e := range s.data {
		if k.mint == mint {
			result = append(result, e.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CheckpointPct < result[j].CheckpointPct
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.CheckpointStore = (*CheckpointStore)(nil)
