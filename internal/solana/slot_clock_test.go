package solana

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeSlotGetter struct {
	slot  int64
	err   error
	calls int
}

func (f *fakeSlotGetter) GetSlot(context.Context) (int64, error) {
	f.calls++
	return f.slot, f.err
}

type fakeWS struct {
	ch chan SlotNotification
}

func (f *fakeWS) SubscribeSlots(context.Context) (<-chan SlotNotification, error) {
	return f.ch, nil
}

func (f *fakeWS) Close() error { return nil }

func TestSlotClock_FallsBackToRPC(t *testing.T) {
	rpc := &fakeSlotGetter{slot: 500}
	clock := NewSlotClock(rpc, time.Second, zerolog.Nop())

	slot, err := clock.CurrentSlot(context.Background())
	if err != nil {
		t.Fatalf("CurrentSlot: %v", err)
	}
	if slot != 500 || rpc.calls != 1 {
		t.Errorf("expected rpc slot 500 in 1 call, got %d in %d", slot, rpc.calls)
	}

	// fresh cache now
	if _, err := clock.CurrentSlot(context.Background()); err != nil {
		t.Fatalf("CurrentSlot: %v", err)
	}
	if rpc.calls != 1 {
		t.Errorf("expected cached slot, rpc called %d times", rpc.calls)
	}
}

func TestSlotClock_StaleCache(t *testing.T) {
	rpc := &fakeSlotGetter{slot: 900}
	clock := NewSlotClock(rpc, time.Second, zerolog.Nop())

	now := time.Unix(1000, 0)
	clock.now = func() time.Time { return now }
	clock.Observe(800)

	now = now.Add(2 * time.Second)
	slot, err := clock.CurrentSlot(context.Background())
	if err != nil {
		t.Fatalf("CurrentSlot: %v", err)
	}
	if slot != 900 {
		t.Errorf("expected rpc slot 900, got %d", slot)
	}
}

func TestSlotClock_Monotonic(t *testing.T) {
	clock := NewSlotClock(&fakeSlotGetter{err: errors.New("down")}, time.Minute, zerolog.Nop())

	clock.Observe(10)
	clock.Observe(7)

	slot, err := clock.CurrentSlot(context.Background())
	if err != nil {
		t.Fatalf("CurrentSlot: %v", err)
	}
	if slot != 10 {
		t.Errorf("expected 10, got %d", slot)
	}
}

func TestSlotClock_RPCError(t *testing.T) {
	clock := NewSlotClock(&fakeSlotGetter{err: errors.New("down")}, 0, zerolog.Nop())
	if _, err := clock.CurrentSlot(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSlotClock_Run(t *testing.T) {
	ws := &fakeWS{ch: make(chan SlotNotification, 2)}
	clock := NewSlotClock(&fakeSlotGetter{err: errors.New("unused")}, time.Minute, zerolog.Nop())

	ws.ch <- SlotNotification{Slot: 41}
	ws.ch <- SlotNotification{Slot: 42}
	close(ws.ch)

	if err := clock.Run(context.Background(), ws); err != nil {
		t.Fatalf("Run: %v", err)
	}

	slot, err := clock.CurrentSlot(context.Background())
	if err != nil {
		t.Fatalf("CurrentSlot: %v", err)
	}
	if slot != 42 {
		t.Errorf("expected 42, got %d", slot)
	}
}
