package storage

import (
	"context"

	"solana-risk-ladder/internal/domain"
)

// UserStore provides access to users storage.
type UserStore interface {
	// Create adds a new profile. Returns ErrDuplicateKey if id exists.
	Create(ctx context.Context, u *domain.UserProfile) error

	// Get retrieves a profile by id. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id int64) (*domain.UserProfile, error)

	// Update overwrites the preferences of an existing profile.
	// Returns ErrNotFound if not exists.
	Update(ctx context.Context, u *domain.UserProfile) error

	// List returns all profiles ordered by id ASC.
	List(ctx context.Context) ([]*domain.UserProfile, error)
}

// PositionStore provides access to positions storage.
type PositionStore interface {
	// Create adds a new position. Returns ErrDuplicateKey if a position for
	// the mint exists and is not expired; an expired one is replaced.
	// The record becomes visible to readers only once fully written.
	Create(ctx context.Context, p *domain.Position) error

	// Get retrieves a position by mint. Returns ErrNotFound if not exists.
	Get(ctx context.Context, mint string) (*domain.Position, error)

	// ListByStatus retrieves positions with the given status, ordered by created_at ASC.
	ListByStatus(ctx context.Context, status domain.PositionStatus) ([]*domain.Position, error)

	// List retrieves all positions ordered by created_at ASC.
	List(ctx context.Context) ([]*domain.Position, error)

	// Transition moves a position from one status to another.
	// Returns ErrNotFound if the mint is unknown and ErrDuplicateKey if the
	// current status is not `from` (another writer got there first).
	Transition(ctx context.Context, mint string, from, to domain.PositionStatus, nowMs int64) error
}

// CheckpointStore provides access to checkpoint_executions storage.
type CheckpointStore interface {
	// Create adds a new execution. Returns ErrDuplicateKey if (mint, checkpoint_pct) exists.
	Create(ctx context.Context, e *domain.CheckpointExecution) error

	// Get retrieves an execution. Returns ErrNotFound if not exists.
	Get(ctx context.Context, mint string, pct int) (*domain.CheckpointExecution, error)

	// ListByMint retrieves executions for a mint, ordered by checkpoint_pct ASC.
	ListByMint(ctx context.Context, mint string) ([]*domain.CheckpointExecution, error)
}

// BroadcastStore provides access to broadcasts storage.
type BroadcastStore interface {
	// Insert appends a receipt. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, b *domain.Broadcast) error

	// LastSuccess returns the earliest successful receipt for an action.
	// Returns ErrNotFound if none.
	LastSuccess(ctx context.Context, ref domain.ActionRef) (*domain.Broadcast, error)

	// ListByMint retrieves receipts for a mint, ordered by created_at ASC.
	ListByMint(ctx context.Context, mint string) ([]*domain.Broadcast, error)
}

// WatchlistStore provides access to watchlist storage: mints that are
// skipped by discovery regardless of score.
type WatchlistStore interface {
	// Add records a mint. Returns ErrDuplicateKey if already listed.
	Add(ctx context.Context, e *domain.WatchlistEntry) error

	// Contains reports whether a mint is listed.
	Contains(ctx context.Context, mint string) (bool, error)

	// List returns all entries ordered by added_at ASC.
	List(ctx context.Context) ([]*domain.WatchlistEntry, error)
}

// ScoreLedger is an append-only sink for scoring decisions.
type ScoreLedger interface {
	// Append records one observation.
	Append(ctx context.Context, o *domain.ScoreObservation) error

	// ListByMint retrieves observations for a mint, ordered by observed_at ASC.
	ListByMint(ctx context.Context, mint string) ([]*domain.ScoreObservation, error)
}

// Stores bundles the transactional stores of one backend.
type Stores struct {
	Users       UserStore
	Positions   PositionStore
	Checkpoints CheckpointStore
	Broadcasts  BroadcastStore
	Watchlist   WatchlistStore
}
