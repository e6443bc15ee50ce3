package memory

import "solana-risk-ladder/internal/storage"

// NewStores returns a fresh in-memory backend.
func NewStores() storage.Stores {
	return storage.Stores{
		Users:       NewUserStore(),
		Positions:   NewPositionStore(),
		Checkpoints: NewCheckpointStore(),
		Broadcasts:  NewBroadcastStore(),
		Watchlist:   NewWatchlistStore(),
	}
}
