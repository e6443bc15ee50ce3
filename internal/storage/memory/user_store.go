package memory

import (
	"context"
	"sort"
	"sync"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

// UserStore is an in-memory implementation of storage.UserStore.
type UserStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.UserProfile
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		data: make(map[int64]*domain.UserProfile),
	}
}

// Create adds a new profile. Returns ErrDuplicateKey if id exists.
func (s *UserStore) Create(_ context.Context, u *domain.UserProfile) error {
	if u == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[u.ID]; exists {
		return storage.ErrDuplicateKey
	}

	userCopy := *u
	s.data[u.ID] = &userCopy
	return nil
}

// Get retrieves a profile by id. Returns ErrNotFound if not exists.
func (s *UserStore) Get(_ context.Context, id int64) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	userCopy := *u
	return &userCopy, nil
}

// Update overwrites the preferences of an existing profile.
func (s *UserStore) Update(_ context.Context, u *domain.UserProfile) error {
	if u == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.data[u.ID]
	if !exists {
		return storage.ErrNotFound
	}

	userCopy := *u
	userCopy.CreatedAt = existing.CreatedAt
	s.data[u.ID] = &userCopy
	return nil
}

// List returns all profiles ordered by id ASC.
func (s *UserStore) List(_ context.Context) ([]*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.UserProfile, 0, len(s.data))
	for _, u := range s.data {
		userCopy := *u
		result = append(result, &userCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.UserStore = (*UserStore)(nil)
