// Package checkpoint evaluates open positions against the profit ladder
// and stages pro-rata partial exits.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/notify"
	"solana-risk-ladder/internal/quote"
	"solana-risk-ladder/internal/storage"
)

// DefaultProbeLamports is the buy-side probe used to read the current price.
var DefaultProbeLamports = decimal.NewFromInt(10_000_000)

var hundred = decimal.NewFromInt(100)

// Status classifies one evaluation.
type Status int

const (
	NotYet Status = iota
	Executed
	AlreadyDone
	Failed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Executed:
		return "executed"
	case AlreadyDone:
		return "already_done"
	case Failed:
		return "failed"
	default:
		return "not_yet"
	}
}

// NotYet reasons.
const (
	ReasonNoSellers       = "no_sellers"
	ReasonBelowCheckpoint = "below_checkpoint"
)

// Result of evaluating one (position, rung) pair.
type Result struct {
	Status    Status
	Reason    string                      // set for NotYet
	GainPct   float64                     // set once the probe succeeded
	Execution *domain.CheckpointExecution // set for Executed
	Err       error                       // set for Failed
}

// Engine evaluates checkpoints. It keeps no state between calls; the
// checkpoint store is the only record of what has fired.
type Engine struct {
	executions storage.CheckpointStore
	quotes     quote.Provider
	notifier   notify.Notifier
	probe      decimal.Decimal
	now        func() time.Time
	logger     zerolog.Logger
}

// NewEngine creates an engine. probe is the price probe size in lamports.
func NewEngine(executions storage.CheckpointStore, quotes quote.Provider, notifier notify.Notifier, probe decimal.Decimal, logger zerolog.Logger) *Engine {
	if probe.Sign() <= 0 {
		probe = DefaultProbeLamports
	}
	return &Engine{
		executions: executions,
		quotes:     quotes,
		notifier:   notifier,
		probe:      probe,
		now:        time.Now,
		logger:     logger.With().Str("component", "checkpoint").Logger(),
	}
}

// Evaluate decides whether rung pct of p fires now and, if so, stages the
// partial sell. Nothing is written unless both sell quote and swap build
// succeed, and each (mint, pct) is written at most once.
func (e *Engine) Evaluate(ctx context.Context, p *domain.Position, pct int) Result {
	done, err := e.executions.ListByMint(ctx, p.Mint)
	if err != nil {
		return Result{Status: Failed, Err: fmt.Errorf("list executions %s: %w", p.Mint, err)}
	}

	exited := make(map[int64]struct{})
	for _, ex := range done {
		if ex.CheckpointPct == pct {
			return Result{Status: AlreadyDone}
		}
		if ex.CheckpointPct < pct {
			for _, s := range ex.Sellers {
				exited[s.UserID] = struct{}{}
			}
		}
	}

	sellers := Sellers(p.Contributors, exited, pct)
	if len(sellers) == 0 {
		return Result{Status: NotYet, Reason: ReasonNoSellers}
	}

	probe, err := e.quotes.Quote(ctx, p.Mint, quote.Buy, e.probe)
	if err == nil {
		err = probe.Validate()
	}
	if err != nil {
		return e.failed(p.Mint, pct, err)
	}
	priceNow := probe.PricePerAtom()
	gain := GainPct(p.EntryPrice, priceNow)
	gainPct := gain.InexactFloat64()

	if gain.LessThan(decimal.NewFromInt(int64(pct))) {
		return Result{Status: NotYet, Reason: ReasonBelowCheckpoint, GainPct: gainPct}
	}

	sellTokens := SellTokens(p.TokenAmount, len(sellers), len(p.Contributors))

	sq, err := e.quotes.Quote(ctx, p.Mint, quote.Sell, sellTokens)
	if err == nil {
		err = sq.Validate()
	}
	if err != nil {
		return e.failed(p.Mint, pct, err)
	}
	payload, err := e.quotes.BuildSwap(ctx, sq)
	if err != nil {
		return e.failed(p.Mint, pct, err)
	}

	ex := &domain.CheckpointExecution{
		Mint:          p.Mint,
		CheckpointPct: pct,
		Sellers:       sellers,
		SellTokens:    sellTokens,
		GainPct:       gainPct,
		PriceNow:      priceNow,
		Payload:       payload,
		CreatedAt:     e.now().UnixMilli(),
	}
	if err := e.executions.Create(ctx, ex); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return Result{Status: AlreadyDone, GainPct: gainPct}
		}
		return Result{Status: Failed, GainPct: gainPct, Err: fmt.Errorf("create execution %s@%d: %w", p.Mint, pct, err)}
	}

	if err := e.notifier.SellReady(ctx, p, ex); err != nil {
		e.logger.Warn().Err(err).Str("mint", p.Mint).Int("checkpoint", pct).Msg("sell notification failed")
	}

	e.logger.Info().
		Str("mint", p.Mint).
		Int("checkpoint", pct).
		Int("sellers", len(sellers)).
		Float64("gain_pct", gainPct).
		Str("sell_tokens", sellTokens.String()).
		Msg("sell staged")
	return Result{Status: Executed, GainPct: gainPct, Execution: ex}
}

func (e *Engine) failed(mint string, pct int, err error) Result {
	if !errors.Is(err, domain.ErrQuoteUnavailable) {
		err = fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, err)
	}
	e.logger.Warn().Err(err).Str("mint", mint).Int("checkpoint", pct).Msg("checkpoint quote failed")
	return Result{Status: Failed, Err: err}
}

// Sellers returns contributors whose target is at most pct and who have not
// exited, in contributor order.
func Sellers(contributors []domain.Contributor, exited map[int64]struct{}, pct int) []domain.Contributor {
	var out []domain.Contributor
	for _, c := range contributors {
		if _, gone := exited[c.UserID]; gone {
			continue
		}
		if c.CashoutTarget <= pct {
			out = append(out, c)
		}
	}
	return out
}

// GainPct returns (now - entry) / entry × 100.
func GainPct(entry, now decimal.Decimal) decimal.Decimal {
	if entry.Sign() <= 0 {
		return decimal.Zero
	}
	return now.Sub(entry).Div(entry).Mul(hundred)
}

// SellTokens returns floor(tokenAmount × sellers / contributors).
func SellTokens(tokenAmount decimal.Decimal, sellers, contributors int) decimal.Decimal {
	if contributors <= 0 {
		return decimal.Zero
	}
	return tokenAmount.Mul(decimal.NewFromInt(int64(sellers))).
		Div(decimal.NewFromInt(int64(contributors))).
		Floor()
}
