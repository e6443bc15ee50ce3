// Package confirm implements the confirm phase of staged actions: look the
// payload up, reject stale references, broadcast and record a receipt.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/observability"
	"solana-risk-ladder/internal/storage"
)

// DefaultTTL is how long a staged payload stays confirmable.
const DefaultTTL = 10 * time.Minute

// Broadcaster submits a payload and returns its signature.
type Broadcaster interface {
	Broadcast(ctx context.Context, payload string) (string, error)
}

// Service confirms staged buys and sells.
type Service struct {
	positions   storage.PositionStore
	executions  storage.CheckpointStore
	receipts    storage.BroadcastStore
	broadcaster Broadcaster
	ttl         time.Duration
	now         func() time.Time
	logger      zerolog.Logger

	locks sync.Map // action key -> *sync.Mutex
}

// NewService creates a confirmation service.
func NewService(stores storage.Stores, broadcaster Broadcaster, ttl time.Duration, logger zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		positions:   stores.Positions,
		executions:  stores.Checkpoints,
		receipts:    stores.Broadcasts,
		broadcaster: broadcaster,
		ttl:         ttl,
		now:         time.Now,
		logger:      logger.With().Str("component", "confirm").Logger(),
	}
}

// TTL returns the confirm window.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Confirm dispatches on ref.Kind. by is the confirming Telegram user, 0 for the CLI.
func (s *Service) Confirm(ctx context.Context, ref domain.ActionRef, by int64) (string, error) {
	switch ref.Kind {
	case domain.ActionBuy:
		return s.ConfirmBuy(ctx, ref.Mint, by)
	case domain.ActionSell:
		return s.ConfirmSell(ctx, ref.Mint, ref.CheckpointPct, by)
	default:
		return "", fmt.Errorf("unknown action %q: %w", ref.Kind, domain.ErrStaleReference)
	}
}

// ConfirmBuy broadcasts the staged buy of mint and opens the position.
func (s *Service) ConfirmBuy(ctx context.Context, mint string, by int64) (string, error) {
	ref := domain.ActionRef{Kind: domain.ActionBuy, Mint: mint}
	unlock := s.lock(ref)
	defer unlock()

	p, err := s.positions.Get(ctx, mint)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("buy %s: %w", mint, domain.ErrStaleReference)
		}
		return "", fmt.Errorf("load position %s: %w", mint, err)
	}

	if sig, ok, err := s.previous(ctx, ref); err != nil {
		return "", err
	} else if ok {
		s.open(ctx, mint)
		return sig, nil
	}

	switch p.Status {
	case domain.PositionPending:
		if s.expired(p.CreatedAt) {
			return "", fmt.Errorf("buy %s staged %s ago: %w", mint, s.age(p.CreatedAt), domain.ErrStaleReference)
		}
	case domain.PositionOpen:
	default:
		return "", fmt.Errorf("buy %s is %s: %w", mint, p.Status, domain.ErrStaleReference)
	}

	sig, err := s.broadcast(ctx, ref, p.Payload, by)
	if err != nil {
		return "", err
	}
	s.open(ctx, mint)
	return sig, nil
}

// ConfirmSell broadcasts the staged sell of mint at checkpoint pct.
func (s *Service) ConfirmSell(ctx context.Context, mint string, pct int, by int64) (string, error) {
	ref := domain.ActionRef{Kind: domain.ActionSell, Mint: mint, CheckpointPct: pct}
	unlock := s.lock(ref)
	defer unlock()

	ex, err := s.executions.Get(ctx, mint, pct)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("sell %s@%d: %w", mint, pct, domain.ErrStaleReference)
		}
		return "", fmt.Errorf("load execution %s@%d: %w", mint, pct, err)
	}

	if sig, ok, err := s.previous(ctx, ref); err != nil {
		return "", err
	} else if ok {
		return sig, nil
	}

	if s.expired(ex.CreatedAt) {
		return "", fmt.Errorf("sell %s@%d staged %s ago: %w", mint, pct, s.age(ex.CreatedAt), domain.ErrStaleReference)
	}

	return s.broadcast(ctx, ref, ex.Payload, by)
}

// previous returns the signature of an earlier successful broadcast.
func (s *Service) previous(ctx context.Context, ref domain.ActionRef) (string, bool, error) {
	b, err := s.receipts.LastSuccess(ctx, ref)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load receipt %s: %w", ref.Key(), err)
	}
	return b.Signature, true, nil
}

func (s *Service) broadcast(ctx context.Context, ref domain.ActionRef, payload string, by int64) (string, error) {
	sig, sendErr := s.broadcaster.Broadcast(ctx, payload)
	observability.RecordBroadcast(string(ref.Kind), sendErr)

	receipt := &domain.Broadcast{
		ID:            uuid.NewString(),
		Kind:          ref.Kind,
		Mint:          ref.Mint,
		CheckpointPct: ref.CheckpointPct,
		Signature:     sig,
		ConfirmedBy:   by,
		CreatedAt:     s.now().UnixMilli(),
	}
	if sendErr != nil {
		receipt.Signature = ""
		receipt.Error = sendErr.Error()
	}
	if err := s.receipts.Insert(ctx, receipt); err != nil {
		s.logger.Error().Err(err).Str("action", ref.Key()).Msg("record receipt failed")
	}

	if sendErr != nil {
		s.logger.Warn().Err(sendErr).Str("action", ref.Key()).Int64("by", by).Msg("broadcast failed")
		return "", fmt.Errorf("broadcast %s: %w", ref.Key(), sendErr)
	}

	s.logger.Info().Str("action", ref.Key()).Str("signature", sig).Int64("by", by).Msg("broadcast confirmed")
	return sig, nil
}

func (s *Service) open(ctx context.Context, mint string) {
	err := s.positions.Transition(ctx, mint, domain.PositionPending, domain.PositionOpen, s.now().UnixMilli())
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		s.logger.Error().Err(err).Str("mint", mint).Msg("open position failed")
	}
}

// ExpirePending marks pending positions older than the TTL as expired and
// returns how many were expired.
func (s *Service) ExpirePending(ctx context.Context) (int, error) {
	pending, err := s.positions.ListByStatus(ctx, domain.PositionPending)
	if err != nil {
		return 0, fmt.Errorf("list pending: %w", err)
	}

	expired := 0
	for _, p := range pending {
		if !s.expired(p.CreatedAt) {
			continue
		}
		unlock := s.lock(domain.ActionRef{Kind: domain.ActionBuy, Mint: p.Mint})
		err := s.positions.Transition(ctx, p.Mint, domain.PositionPending, domain.PositionExpired, s.now().UnixMilli())
		unlock()
		switch {
		case err == nil:
			expired++
			s.logger.Info().Str("mint", p.Mint).Msg("pending buy expired")
		case errors.Is(err, storage.ErrDuplicateKey):
			// confirmed in the meantime
		default:
			return expired, fmt.Errorf("expire %s: %w", p.Mint, err)
		}
	}
	observability.RecordExpired(expired)
	return expired, nil
}

func (s *Service) expired(createdAtMs int64) bool {
	return s.now().Sub(time.UnixMilli(createdAtMs)) > s.ttl
}

func (s *Service) age(createdAtMs int64) time.Duration {
	return s.now().Sub(time.UnixMilli(createdAtMs)).Truncate(time.Second)
}

func (s *Service) lock(ref domain.ActionRef) func() {
	v, _ := s.locks.LoadOrStore(ref.Key(), &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
