package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

func testPosition(mint string, createdAt int64) *domain.Position {
	return &domain.Position{
		Mint:          mint,
		Pool:          "pool-" + mint,
		Score:         60,
		EntryPrice:    decimal.NewFromFloat(0.05),
		TokenAmount:   decimal.NewFromInt(1_000_000),
		SpentLamports: decimal.NewFromInt(50_000),
		Contributors: []domain.Contributor{
			{UserID: 1, RiskThreshold: 40, CashoutTarget: 7},
			{UserID: 2, RiskThreshold: 50, CashoutTarget: 14},
		},
		Payload:   "AQID",
		Status:    domain.PositionPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestPositionStore_CreateAndGet(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	p := testPosition("mint1", 1000)
	if err := store.Create(ctx, p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Get(ctx, "mint1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.TokenAmount.Equal(p.TokenAmount) {
		t.Errorf("TokenAmount mismatch: got %s, want %s", got.TokenAmount, p.TokenAmount)
	}
	if len(got.Contributors) != 2 {
		t.Fatalf("expected 2 contributors, got %d", len(got.Contributors))
	}

	// Mutating the returned copy must not leak into the store
	got.Contributors[0].CashoutTarget = 300
	again, _ := store.Get(ctx, "mint1")
	if again.Contributors[0].CashoutTarget != 7 {
		t.Errorf("store was mutated through returned copy")
	}
}

func TestPositionStore_DuplicateKey(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	if err := store.Create(ctx, testPosition("mint1", 1000)); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	err := store.Create(ctx, testPosition("mint1", 2000))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestPositionStore_ExpiredIsReplaced(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	if err := store.Create(ctx, testPosition("mint1", 1000)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Transition(ctx, "mint1", domain.PositionPending, domain.PositionExpired, 1500); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if err := store.Create(ctx, testPosition("mint1", 2000)); err != nil {
		t.Fatalf("Create over expired failed: %v", err)
	}

	got, _ := store.Get(ctx, "mint1")
	if got.Status != domain.PositionPending || got.CreatedAt != 2000 {
		t.Errorf("expected fresh pending position, got %s at %d", got.Status, got.CreatedAt)
	}
}

func TestPositionStore_Transition(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	if err := store.Create(ctx, testPosition("mint1", 1000)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Transition(ctx, "mint1", domain.PositionPending, domain.PositionOpen, 1100); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	err := store.Transition(ctx, "mint1", domain.PositionPending, domain.PositionOpen, 1200)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey on stale transition, got %v", err)
	}
	err = store.Transition(ctx, "missing", domain.PositionPending, domain.PositionOpen, 1200)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	open, err := store.ListByStatus(ctx, domain.PositionOpen)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(open) != 1 || open[0].UpdatedAt != 1100 {
		t.Errorf("unexpected open positions: %+v", open)
	}
}

func TestPositionStore_ListOrder(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	for i, mint := range []string{"c", "a", "b"} {
		if err := store.Create(ctx, testPosition(mint, int64(3000-i*1000))); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].Mint != "b" || all[2].Mint != "c" {
		t.Errorf("unexpected order: %s %s %s", all[0].Mint, all[1].Mint, all[2].Mint)
	}
}

func TestPositionStore_ConcurrentCreate(t *testing.T) {
	store := NewPositionStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	var created atomic.Int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.Create(ctx, testPosition("mint1", int64(i))); err == nil {
				created.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("expected exactly one winner, got %d", created.Load())
	}
}
