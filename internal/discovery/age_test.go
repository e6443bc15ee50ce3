package discovery

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/solana/stub"
)

func TestSlotAgeMinutes(t *testing.T) {
	cases := []struct {
		slot int64
		want float64
	}{
		{0, 0},
		{150, 1},        // 150 * 0.4s = 60s
		{7200, 0},       // wraps
		{7199, 47.9933}, // just under the window
		{72_000_150, 1},
	}
	for _, tc := range cases {
		got := SlotAgeMinutes(tc.slot, DefaultAgeWindowSlots)
		if math.Abs(got-tc.want) > 0.001 {
			t.Errorf("slot %d: expected %.3f, got %.3f", tc.slot, tc.want, got)
		}
	}
}

func TestSlotAgeSource(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Slot = 7200 + 300

	age, err := NewSlotAgeSource(rpc, 0).AgeMinutes(context.Background(), domain.PoolCandidate{})
	if err != nil {
		t.Fatalf("AgeMinutes: %v", err)
	}
	if math.Abs(age-2) > 1e-9 {
		t.Errorf("expected 2 minutes, got %f", age)
	}

	rpc.Err = errors.New("down")
	if _, err := NewSlotAgeSource(rpc, 0).AgeMinutes(context.Background(), domain.PoolCandidate{}); !errors.Is(err, domain.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestPoolOpenTimeAge(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rpc := stub.NewRPCClient()
	rpc.Slot = 150

	src := NewPoolOpenTimeAge(NewSlotAgeSource(rpc, 0))
	src.now = func() time.Time { return now }

	age, err := src.AgeMinutes(context.Background(), domain.PoolCandidate{OpenTime: now.Add(-90 * time.Second).Unix()})
	if err != nil {
		t.Fatalf("AgeMinutes: %v", err)
	}
	if age != 1.5 {
		t.Errorf("expected 1.5 minutes, got %f", age)
	}

	// unknown open time uses the fallback
	age, err = src.AgeMinutes(context.Background(), domain.PoolCandidate{})
	if err != nil {
		t.Fatalf("AgeMinutes fallback: %v", err)
	}
	if math.Abs(age-1) > 1e-9 {
		t.Errorf("expected fallback age 1, got %f", age)
	}

	noFallback := NewPoolOpenTimeAge(nil)
	if _, err := noFallback.AgeMinutes(context.Background(), domain.PoolCandidate{OpenTime: now.Add(time.Hour).Unix()}); !errors.Is(err, domain.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}
