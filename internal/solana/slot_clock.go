package solana

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// SlotGetter is the RPC fallback of SlotClock.
type SlotGetter interface {
	GetSlot(ctx context.Context) (int64, error)
}

// SlotClock caches the newest slot seen on a slotSubscribe stream and
// falls back to getSlot when the cache is older than maxAge.
type SlotClock struct {
	rpc    SlotGetter
	maxAge time.Duration
	now    func() time.Time
	logger zerolog.Logger

	slot      atomic.Int64
	updatedAt atomic.Int64 // unix nanos, 0 = never
}

// NewSlotClock creates a clock. maxAge <= 0 disables the cache.
func NewSlotClock(rpc SlotGetter, maxAge time.Duration, logger zerolog.Logger) *SlotClock {
	return &SlotClock{
		rpc:    rpc,
		maxAge: maxAge,
		now:    time.Now,
		logger: logger.With().Str("component", "slot_clock").Logger(),
	}
}

// Run subscribes to slot updates and feeds the cache until ctx is done or
// the stream closes.
func (c *SlotClock) Run(ctx context.Context, ws WSClient) error {
	ch, err := ws.SubscribeSlots(ctx)
	if err != nil {
		return fmt.Errorf("subscribe slots: %w", err)
	}

	c.logger.Info().Msg("slot subscription active")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-ch:
			if !ok {
				return nil
			}
			c.Observe(n.Slot)
		}
	}
}

// Observe records a slot. Older slots never move the clock backwards.
func (c *SlotClock) Observe(slot int64) {
	for {
		cur := c.slot.Load()
		if slot < cur {
			return
		}
		if c.slot.CompareAndSwap(cur, slot) {
			c.updatedAt.Store(c.now().UnixNano())
			return
		}
	}
}

// CurrentSlot returns the cached slot when fresh, otherwise asks the RPC.
func (c *SlotClock) CurrentSlot(ctx context.Context) (int64, error) {
	if c.maxAge > 0 {
		if ts := c.updatedAt.Load(); ts != 0 && c.now().Sub(time.Unix(0, ts)) <= c.maxAge {
			return c.slot.Load(), nil
		}
	}

	slot, err := c.rpc.GetSlot(ctx)
	if err != nil {
		return 0, err
	}
	c.Observe(slot)
	return slot, nil
}

// GetSlot makes SlotClock a SlotGetter.
func (c *SlotClock) GetSlot(ctx context.Context) (int64, error) {
	return c.CurrentSlot(ctx)
}
