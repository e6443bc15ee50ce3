package memory

import (
	"context"
	"sync"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

// ScoreLedger is an in-memory implementation of storage.ScoreLedger.
// It keeps at most limit observations, dropping the oldest.
type ScoreLedger struct {
	mu    sync.RWMutex
	limit int
	data  []*domain.ScoreObservation
}

// NewScoreLedger creates a ledger bounded to limit rows (0 = unbounded).
func NewScoreLedger(limit int) *ScoreLedger {
	return &ScoreLedger{limit: limit}
}

// Append records one observation.
func (l *ScoreLedger) Append(_ context.Context, o *domain.ScoreObservation) error {
	if o == nil || o.Mint == "" {
		return storage.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	obsCopy := *o
	l.data = append(l.data, &obsCopy)
	if l.limit > 0 && len(l.data) > l.limit {
		l.data = l.data[len(l.data)-l.limit:]
	}
	return nil
}

// ListByMint retrieves observations for a mint in append order.
func (l *ScoreLedger) ListByMint(_ context.Context, mint string) ([]*domain.ScoreObservation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []*domain.ScoreObservation
	for _, o := range l.data {
		if o.Mint == mint {
			obsCopy := *o
			result = append(result, &obsCopy)
		}
	}
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.ScoreLedger = (*ScoreLedger)(nil)
