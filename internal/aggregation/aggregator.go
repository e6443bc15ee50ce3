// Package aggregation stages pooled buys for the users a candidate's score
// qualifies.
package aggregation

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

// DefaultContributionLamports is 0.01 SOL per user.
var DefaultContributionLamports = decimal.NewFromInt(10_000_000)

// Outcome classifies an Aggregate call.
type Outcome int

const (
	NoAction Outcome = iota
	Staged
	Failed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Staged:
		return "staged"
	case Failed:
		return "failed"
	default:
		return "no_action"
	}
}

// Reasons attached to NoAction results.
const (
	ReasonNoUsers        = "no_users"
	ReasonPositionExists = "position_exists"
	ReasonLostRace       = "lost_race"
)

// Result of one aggregation attempt.
type Result struct {
	Outcome  Outcome
	Reason   string           // set for NoAction
	Position *domain.Position // set for Staged
	Err      error            // set for Failed
}

// Aggregator turns an eligible user set into one pending Position per mint.
type Aggregator struct {
	positions    storage.PositionStore
	quotes       quote.Provider
	notifier     notify.Notifier
	contribution decimal.Decimal
	now          func() time.Time
	logger       zerolog.Logger
}

// New creates an aggregator. contribution is lamports per eligible user.
func New(positions storage.PositionStore, quotes quote.Provider, notifier notify.Notifier, contribution decimal.Decimal, logger zerolog.Logger) *Aggregator {
	if contribution.Sign() <= 0 {
		contribution = DefaultContributionLamports
	}
	return &Aggregator{
		positions:    positions,
		quotes:       quotes,
		notifier:     notifier,
		contribution: contribution,
		now:          time.Now,
		logger:       logger.With().Str("component", "aggregator").Logger(),
	}
}

// Aggregate stages a pooled buy of candidate for eligible. Nothing is
// written unless the quote and the swap build both succeed.
func (a *Aggregator) Aggregate(ctx context.Context, c domain.PoolCandidate, score int, eligible []domain.Contributor) Result {
	if len(eligible) == 0 {
		return Result{Outcome: NoAction, Reason: ReasonNoUsers}
	}

	existing, err := a.positions.Get(ctx, c.Mint)
	switch {
	case err == nil && existing.Blocks():
		return Result{Outcome: NoAction, Reason: ReasonPositionExists}
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return Result{Outcome: Failed, Err: fmt.Errorf("load position %s: %w", c.Mint, err)}
	}

	amount := a.contribution.Mul(decimal.NewFromInt(int64(len(eligible))))

	q, err := a.quotes.Quote(ctx, c.Mint, quote.Buy, amount)
	if err != nil {
		return a.failed(c.Mint, err)
	}
	if err := q.Validate(); err != nil {
		return a.failed(c.Mint, err)
	}
	payload, err := a.quotes.BuildSwap(ctx, q)
	if err != nil {
		return a.failed(c.Mint, err)
	}

	nowMs := a.now().UnixMilli()
	p := &domain.Position{
		Mint:          c.Mint,
		Pool:          c.Pool,
		Score:         score,
		EntryPrice:    q.PricePerAtom(),
		TokenAmount:   q.OutAmount,
		SpentLamports: q.InAmount,
		Contributors:  append([]domain.Contributor(nil), eligible...),
		Payload:       payload,
		Status:        domain.PositionPending,
		CreatedAt:     nowMs,
		UpdatedAt:     nowMs,
	}

	if err := a.positions.Create(ctx, p); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return Result{Outcome: NoAction, Reason: ReasonLostRace}
		}
		return Result{Outcome: Failed, Err: fmt.Errorf("create position %s: %w", c.Mint, err)}
	}

	if err := a.notifier.BuyReady(ctx, p); err != nil {
		a.logger.Warn().Err(err).Str("mint", c.Mint).Msg("buy notification failed")
	}

	a.logger.Info().
		Str("mint", c.Mint).
		Int("score", score).
		Int("users", len(eligible)).
		Str("entry_price", p.EntryPrice.String()).
		Msg("buy staged")
	return Result{Outcome: Staged, Position: p}
}

func (a *Aggregator) failed(mint string, err error) Result {
	if !errors.Is(err, domain.ErrQuoteUnavailable) {
		err = fmt.Errorf("%w: %v", domain.ErrQuoteUnavailable, err)
	}
	a.logger.Warn().Err(err).Str("mint", mint).Msg("buy quote failed")
	return Result{Outcome: Failed, Err: err}
}
