// Package orchestrator runs the two sweeps of the engine: discovery
// (candidates → score → eligible users → staged buy) and checkpoint
// (open positions × ladder → staged partial sells). The sweeps share
// nothing but the stores.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"solana-risk-ladder/internal/aggregation"
	"solana-risk-ladder/internal/checkpoint"
	"solana-risk-ladder/internal/discovery"
	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/observability"
	"solana-risk-ladder/internal/risk"
	"solana-risk-ladder/internal/storage"
)

// DefaultCallTimeout bounds each network call made by a sweep.
const DefaultCallTimeout = 10 * time.Second

// Expirer expires pending buys that were never confirmed.
type Expirer interface {
	ExpirePending(ctx context.Context) (int, error)
}

// Orchestrator coordinates discovery and checkpoint sweeps.
type Orchestrator struct {
	candidates discovery.CandidateSource
	holders    discovery.HolderSource
	age        discovery.AgeSource

	scorer     *risk.Scorer
	aggregator *aggregation.Aggregator
	engine     *checkpoint.Engine
	expirer    Expirer

	stores storage.Stores
	ledger storage.ScoreLedger

	ladder      []int
	callTimeout time.Duration
	now         func() time.Time
	logger      zerolog.Logger
}

// Options for creating Orchestrator.
type Options struct {
	// Discovery inputs
	Candidates discovery.CandidateSource
	Holders    discovery.HolderSource
	Age        discovery.AgeSource

	// Core
	Scorer     *risk.Scorer
	Aggregator *aggregation.Aggregator
	Engine     *checkpoint.Engine
	Expirer    Expirer // optional

	// Storage
	Stores storage.Stores
	Ledger storage.ScoreLedger // optional

	Ladder      []int
	CallTimeout time.Duration
	Logger      zerolog.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	ladder := opts.Ladder
	if len(ladder) == 0 {
		ladder = domain.DefaultLadder
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &Orchestrator{
		candidates:  opts.Candidates,
		holders:     opts.Holders,
		age:         opts.Age,
		scorer:      opts.Scorer,
		aggregator:  opts.Aggregator,
		engine:      opts.Engine,
		expirer:     opts.Expirer,
		stores:      opts.Stores,
		ledger:      opts.Ledger,
		ladder:      append([]int(nil), ladder...),
		callTimeout: timeout,
		now:         time.Now,
		logger:      opts.Logger.With().Str("component", "orchestrator").Logger(),
	}
}

// DiscoveryResult summarises one discovery sweep.
type DiscoveryResult struct {
	Candidates   int
	Watchlisted  int
	Insufficient int
	Unavailable  int
	NoUsers      int
	NoAction     int
	Staged       int
	Failed       int
}

// DiscoverySweep scores every fresh candidate and stages buys for those
// with eligible users. A failure on one candidate skips that candidate.
func (o *Orchestrator) DiscoverySweep(ctx context.Context) (*DiscoveryResult, error) {
	start := time.Now()
	res := &DiscoveryResult{}

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	candidates, err := o.candidates.Candidates(callCtx)
	cancel()
	if err != nil {
		observability.RecordSweep("discovery", "error", time.Since(start).Seconds())
		return res, fmt.Errorf("fetch candidates: %w", err)
	}
	res.Candidates = len(candidates)
	observability.RecordCandidates(len(candidates))

	if len(candidates) > 0 {
		profiles, err := o.stores.Users.List(ctx)
		if err != nil {
			observability.RecordSweep("discovery", "error", time.Since(start).Seconds())
			return res, fmt.Errorf("list users: %w", err)
		}

		for _, c := range candidates {
			if ctx.Err() != nil {
				break
			}
			o.processCandidate(ctx, c, profiles, res)
		}
	}

	o.logger.Info().
		Int("candidates", res.Candidates).
		Int("staged", res.Staged).
		Int("insufficient", res.Insufficient).
		Int("failed", res.Failed).
		Dur("took", time.Since(start)).
		Msg("discovery sweep finished")

	if err := ctx.Err(); err != nil {
		return res, err
	}
	observability.RecordSweep("discovery", "success", time.Since(start).Seconds())
	observability.MarkSweepSuccess("discovery", o.now().Unix())
	return res, nil
}

func (o *Orchestrator) processCandidate(ctx context.Context, c domain.PoolCandidate, profiles []*domain.UserProfile, res *DiscoveryResult) {
	log := o.logger.With().Str("mint", c.Mint).Str("pool", c.Pool).Logger()
	obs := &domain.ScoreObservation{
		Mint:      c.Mint,
		Pool:      c.Pool,
		Liquidity: c.Liquidity.InexactFloat64(),
		Score:     -1,
	}

	listed, err := o.stores.Watchlist.Contains(ctx, c.Mint)
	if err != nil {
		log.Warn().Err(err).Msg("watchlist lookup failed")
		res.Failed++
		return
	}
	if listed {
		res.Watchlisted++
		observability.RecordSkip("watchlist")
		obs.Decision = domain.DecisionNoAction
		o.record(ctx, obs)
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	holders, err := o.holders.Holders(callCtx, c.Mint)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("holders unavailable")
		res.Unavailable++
		observability.RecordSkip("holders_unavailable")
		return
	}

	callCtx, cancel = context.WithTimeout(ctx, o.callTimeout)
	age, err := o.age.AgeMinutes(callCtx, c)
	cancel()
	if err != nil {
		log.Warn().Err(err).Msg("age unavailable")
		res.Unavailable++
		observability.RecordSkip("age_unavailable")
		return
	}
	obs.AgeMinutes = age
	obs.Top5Pct = risk.Concentration(holders)

	score, err := o.scorer.Score(c, holders, age)
	if err != nil {
		log.Debug().Err(err).Msg("insufficient data")
		res.Insufficient++
		observability.RecordSkip("insufficient_data")
		obs.Decision = domain.DecisionInsufficient
		o.record(ctx, obs)
		return
	}
	obs.Score = score
	observability.RecordScore(score)

	eligible := risk.Select(score, profiles)
	obs.EligibleUsers = len(eligible)

	callCtx, cancel = context.WithTimeout(ctx, 2*o.callTimeout)
	agg := o.aggregator.Aggregate(callCtx, c, score, eligible)
	cancel()
	observability.RecordAggregation(agg.Outcome.String(), agg.Reason)

	switch agg.Outcome {
	case aggregation.Staged:
		res.Staged++
		obs.Decision = domain.DecisionStaged
	case aggregation.Failed:
		res.Failed++
		obs.Decision = domain.DecisionFailed
		log.Warn().Err(agg.Err).Int("score", score).Msg("aggregation failed")
	default:
		if agg.Reason == aggregation.ReasonNoUsers {
			res.NoUsers++
			obs.Decision = domain.DecisionNoUsers
		} else {
			res.NoAction++
			obs.Decision = domain.DecisionNoAction
		}
	}
	o.record(ctx, obs)
}

func (o *Orchestrator) record(ctx context.Context, obs *domain.ScoreObservation) {
	if o.ledger == nil {
		return
	}
	obs.ObservedAt = o.now().UnixMilli()
	if err := o.ledger.Append(ctx, obs); err != nil {
		o.logger.Warn().Err(err).Str("mint", obs.Mint).Msg("ledger append failed")
	}
}

// CheckpointResult summarises one checkpoint sweep.
type CheckpointResult struct {
	Expired     int
	Positions   int
	Executed    int
	AlreadyDone int
	Failed      int
	Closed      int
}

// CheckpointSweep expires stale pending buys, then walks every open
// position up the ladder and closes the fully resolved ones.
func (o *Orchestrator) CheckpointSweep(ctx context.Context) (*CheckpointResult, error) {
	start := time.Now()
	res := &CheckpointResult{}

	if o.expirer != nil {
		n, err := o.expirer.ExpirePending(ctx)
		res.Expired = n
		if err != nil {
			o.logger.Warn().Err(err).Msg("expire pending failed")
		}
	}

	open, err := o.stores.Positions.ListByStatus(ctx, domain.PositionOpen)
	if err != nil {
		observability.RecordSweep("checkpoint", "error", time.Since(start).Seconds())
		return res, fmt.Errorf("list open positions: %w", err)
	}
	res.Positions = len(open)
	observability.SetOpenPositions(len(open))

	for _, p := range open {
		if ctx.Err() != nil {
			break
		}
		o.walkPosition(ctx, p, res)
	}

	o.logger.Info().
		Int("positions", res.Positions).
		Int("executed", res.Executed).
		Int("closed", res.Closed).
		Int("expired", res.Expired).
		Dur("took", time.Since(start)).
		Msg("checkpoint sweep finished")

	if err := ctx.Err(); err != nil {
		return res, err
	}
	observability.RecordSweep("checkpoint", "success", time.Since(start).Seconds())
	observability.MarkSweepSuccess("checkpoint", o.now().Unix())
	return res, nil
}

func (o *Orchestrator) walkPosition(ctx context.Context, p *domain.Position, res *CheckpointResult) {
	walkCtx, cancel := context.WithTimeout(ctx, o.callTimeout*time.Duration(len(o.ladder)))
	defer cancel()

	w, err := o.engine.Walk(walkCtx, p, o.ladder)
	if w != nil {
		for _, r := range w.Results {
			observability.RecordCheckpoint(r.Status.String())
			switch r.Status {
			case checkpoint.Executed:
				res.Executed++
			case checkpoint.AlreadyDone:
				res.AlreadyDone++
			case checkpoint.Failed:
				res.Failed++
			}
		}
	}
	if err != nil {
		o.logger.Warn().Err(err).Str("mint", p.Mint).Msg("checkpoint walk failed")
		return
	}
	if !w.Close {
		return
	}

	err = o.stores.Positions.Transition(ctx, p.Mint, domain.PositionOpen, domain.PositionClosed, o.now().UnixMilli())
	switch {
	case err == nil:
		res.Closed++
		observability.RecordPositionClosed()
		o.logger.Info().Str("mint", p.Mint).Msg("position closed")
	case errors.Is(err, storage.ErrDuplicateKey):
		// closed concurrently
	default:
		o.logger.Warn().Err(err).Str("mint", p.Mint).Msg("close position failed")
	}
}
