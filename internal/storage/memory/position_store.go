package memory

import (
	"context"
	"sort"
	"sync"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Position // keyed by mint
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[string]*domain.Position),
	}
}

// Create adds a new position. Returns ErrDuplicateKey if a non-expired
// position for the mint exists.
func (s *PositionStore) Create(_ context.Context, p *domain.Position) error {
	if p == nil || p.Mint == "" || !p.Status.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.data[p.Mint]; exists && existing.Blocks() {
		return storage.ErrDuplicateKey
	}

	s.data[p.Mint] = p.Clone()
	return nil
}

// Get retrieves a position by mint. Returns ErrNotFound if not exists.
func (s *PositionStore) Get(_ context.Context, mint string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return p.Clone(), nil
}

// ListByStatus retrieves positions with the given status, ordered by created_at ASC.
func (s *PositionStore) ListByStatus(_ context.Context, status domain.PositionStatus) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Position
	for _, p := range s.data {
		if p.Status == status {
			result = append(result, p.Clone())
		}
	}
	sortPositions(result)
	return result, nil
}

// List retrieves all positions ordered by created_at ASC.
func (s *PositionStore) List(_ context.Context) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Position, 0, len(s.data))
	for _, p := range s.data {
		result = append(result, p.Clone())
	}
	sortPositions(result)
	return result, nil
}

// Transition moves a position from one status to another.
func (s *PositionStore) Transition(_ context.Context, mint string, from, to domain.PositionStatus, nowMs int64) error {
	if !to.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[mint]
	if !exists {
		return storage.ErrNotFound
	}
	if p.Status != from {
		return storage.ErrDuplicateKey
	}

	updated := p.Clone()
	updated.Status = to
	updated.UpdatedAt = nowMs
	s.data[mint] = updated
	return nil
}

func sortPositions(ps []*domain.Position) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].CreatedAt != ps[j].CreatedAt {
			return ps[i].CreatedAt < ps[j].CreatedAt
		}
		return ps[i].Mint < ps[j].Mint
	})
}

// Verify interface compliance at compile time.
var _ storage.PositionStore = (*PositionStore)(nil)
