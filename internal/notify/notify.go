// Package notify delivers stage notifications for buy and sell payloads
// awaiting human confirmation.
package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"solana-risk-ladder/internal/domain"
)

// Notifier announces staged payloads.
type Notifier interface {
	BuyReady(ctx context.Context, p *domain.Position) error
	SellReady(ctx context.Context, p *domain.Position, e *domain.CheckpointExecution) error
}

// LogNotifier writes notifications to the log only.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notify").Logger()}
}

// BuyReady logs a staged buy.
func (n *LogNotifier) BuyReady(_ context.Context, p *domain.Position) error {
	n.logger.Info().
		Str("mint", p.Mint).
		Int("score", p.Score).
		Int("users", len(p.Contributors)).
		Str("sol", domain.LamportsToSOL(p.SpentLamports).StringFixed(3)).
		Str("confirm", domain.ActionRef{Kind: domain.ActionBuy, Mint: p.Mint}.Key()).
		Msg("buy staged")
	return nil
}

// SellReady logs a staged sell.
func (n *LogNotifier) SellReady(_ context.Context, p *domain.Position, e *domain.CheckpointExecution) error {
	n.logger.Info().
		Str("mint", e.Mint).
		Int("checkpoint", e.CheckpointPct).
		Int("users", len(e.Sellers)).
		Float64("gain_pct", e.GainPct).
		Str("tokens", e.SellTokens.String()).
		Str("confirm", domain.ActionRef{Kind: domain.ActionSell, Mint: e.Mint, CheckpointPct: e.CheckpointPct}.Key()).
		Msg("sell staged")
	return nil
}

// Multi fans out to several notifiers and joins their errors.
type Multi []Notifier

// BuyReady notifies every member.
func (m Multi) BuyReady(ctx context.Context, p *domain.Position) error {
	var errs []error
	for _, n := range m {
		if err := n.BuyReady(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SellReady notifies every member.
func (m Multi) SellReady(ctx context.Context, p *domain.Position, e *domain.CheckpointExecution) error {
	var errs []error
	for _, n := range m {
		if err := n.SellReady(ctx, p, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every notification in memory. Set Err to make calls fail
// after recording.
type Recorder struct {
	mu    sync.Mutex
	Err   error
	buys  []*domain.Position
	sells []*domain.CheckpointExecution
}

// BuyReady records p.
func (r *Recorder) BuyReady(_ context.Context, p *domain.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buys = append(r.buys, p.Clone())
	return r.Err
}

// SellReady records e.
func (r *Recorder) SellReady(_ context.Context, _ *domain.Position, e *domain.CheckpointExecution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sells = append(r.sells, e.Clone())
	return r.Err
}

// Buys returns recorded buy notifications.
func (r *Recorder) Buys() []*domain.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Position(nil), r.buys...)
}

// Sells returns recorded sell notifications.
func (r *Recorder) Sells() []*domain.CheckpointExecution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.CheckpointExecution(nil), r.sells...)
}

var (
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = Multi(nil)
	_ Notifier = (*Recorder)(nil)
)
