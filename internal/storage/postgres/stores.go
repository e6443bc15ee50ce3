package postgres

import "solana-risk-ladder/internal/storage"

// NewStores wires every PostgreSQL store onto one pool.
func NewStores(pool *Pool) storage.Stores {
	return storage.Stores{
		Users:       NewUserStore(pool),
		Positions:   NewPositionStore(pool),
		Checkpoints: NewCheckpointStore(pool),
		Broadcasts:  NewBroadcastStore(pool),
		Watchlist:   NewWatchlistStore(pool),
	}
}
