package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"solana-risk-ladder/internal/domain"
)

func TestMulti_JoinsErrors(t *testing.T) {
	failing := &Recorder{Err: errors.New("telegram down")}
	ok := &Recorder{}
	m := Multi{failing, NewLogNotifier(zerolog.Nop()), ok}

	p := &domain.Position{Mint: "m", SpentLamports: decimal.NewFromInt(10_000_000)}
	err := m.BuyReady(context.Background(), p)
	if err == nil || err.Error() != "telegram down" {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(ok.Buys()) != 1 {
		t.Error("later notifiers must still run")
	}

	e := &domain.CheckpointExecution{Mint: "m", CheckpointPct: 7}
	if err := (Multi{ok}).SellReady(context.Background(), p, e); err != nil {
		t.Fatalf("SellReady: %v", err)
	}
	if got := ok.Sells(); len(got) != 1 || got[0].CheckpointPct != 7 {
		t.Errorf("unexpected sells %+v", got)
	}
}

func TestRecorder_CopiesInput(t *testing.T) {
	r := &Recorder{}
	p := &domain.Position{Mint: "m", Contributors: []domain.Contributor{{UserID: 1}}}
	_ = r.BuyReady(context.Background(), p)

	p.Contributors[0].UserID = 99
	if r.Buys()[0].Contributors[0].UserID != 1 {
		t.Error("recorder must keep a snapshot")
	}
}
