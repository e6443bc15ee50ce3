package discovery

import (
	"context"
	"fmt"
	"time"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/solana"
)

// DefaultAgeWindowSlots is the slot window of the age proxy (two hours at
// two slots per second).
const DefaultAgeWindowSlots = 7200

// SlotAgeSource estimates age from the current slot alone:
// ((slot mod window) × slotDuration) in minutes. It ignores the candidate.
// This is a coarse proxy; PoolOpenTimeAge uses the pool's own open time.
type SlotAgeSource struct {
	slots       solana.SlotGetter
	windowSlots int64
}

// NewSlotAgeSource creates the slot-based age proxy.
func NewSlotAgeSource(slots solana.SlotGetter, windowSlots int64) *SlotAgeSource {
	if windowSlots <= 0 {
		windowSlots = DefaultAgeWindowSlots
	}
	return &SlotAgeSource{slots: slots, windowSlots: windowSlots}
}

// AgeMinutes returns the proxy age.
func (s *SlotAgeSource) AgeMinutes(ctx context.Context, _ domain.PoolCandidate) (float64, error) {
	slot, err := s.slots.GetSlot(ctx)
	if err != nil {
		return 0, fmt.Errorf("get slot: %w: %v", domain.ErrDataUnavailable, err)
	}
	return SlotAgeMinutes(slot, s.windowSlots), nil
}

// SlotAgeMinutes is the pure form of the slot proxy.
func SlotAgeMinutes(slot, windowSlots int64) float64 {
	if windowSlots <= 0 {
		windowSlots = DefaultAgeWindowSlots
	}
	return float64(slot%windowSlots) * solana.SlotDuration.Seconds() / 60
}

// PoolOpenTimeAge measures age from the pool's open time and falls back to
// another source when the open time is unknown or in the future.
type PoolOpenTimeAge struct {
	fallback AgeSource
	now      func() time.Time
}

// NewPoolOpenTimeAge creates an open-time age source.
func NewPoolOpenTimeAge(fallback AgeSource) *PoolOpenTimeAge {
	return &PoolOpenTimeAge{fallback: fallback, now: time.Now}
}

// AgeMinutes returns minutes since the pool opened.
func (s *PoolOpenTimeAge) AgeMinutes(ctx context.Context, c domain.PoolCandidate) (float64, error) {
	nowSec := s.now().Unix()
	if c.OpenTime > 0 && c.OpenTime <= nowSec {
		return float64(nowSec-c.OpenTime) / 60, nil
	}
	if s.fallback == nil {
		return 0, fmt.Errorf("pool %s: %w: open time unknown", c.Pool, domain.ErrDataUnavailable)
	}
	return s.fallback.AgeMinutes(ctx, c)
}
