package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/storage"
)

// withStores opens the configured backend for the duration of fn.
func (a *App) withStores(ctx context.Context, fn func(storage.Stores) error) error {
	stores, closeStores, err := a.OpenStores(ctx)
	if err != nil {
		return err
	}
	defer closeStores()
	return fn(stores)
}

// PositionView is a position plus its staged exits.
type PositionView struct {
	Position   *domain.Position
	Executions []*domain.CheckpointExecution
}

// ListPositions returns positions, optionally filtered by status.
func (a *App) ListPositions(ctx context.Context, status string) ([]PositionView, error) {
	var out []PositionView
	err := a.withStores(ctx, func(s storage.Stores) error {
		var (
			positions []*domain.Position
			err       error
		)
		if status == "" {
			positions, err = s.Positions.List(ctx)
		} else {
			st := domain.PositionStatus(status)
			if !st.IsValid() {
				return fmt.Errorf("unknown position status %q", status)
			}
			positions, err = s.Positions.ListByStatus(ctx, st)
		}
		if err != nil {
			return err
		}
		for _, p := range positions {
			execs, err := s.Checkpoints.ListByMint(ctx, p.Mint)
			if err != nil {
				return fmt.Errorf("list executions for %s: %w", p.Mint, err)
			}
			out = append(out, PositionView{Position: p, Executions: execs})
		}
		return nil
	})
	return out, err
}

// ListUsers returns every profile.
func (a *App) ListUsers(ctx context.Context) ([]*domain.UserProfile, error) {
	var out []*domain.UserProfile
	err := a.withStores(ctx, func(s storage.Stores) error {
		var err error
		out, err = s.Users.List(ctx)
		return err
	})
	return out, err
}

// Confirm broadcasts a staged action from the command line, bypassing
// Telegram. by is recorded as the confirming user.
func (a *App) Confirm(ctx context.Context, ref domain.ActionRef, by int64) (string, error) {
	var sig string
	err := a.withStores(ctx, func(s storage.Stores) error {
		ledger, closeLedger, err := a.OpenLedger(ctx)
		if err != nil {
			return err
		}
		defer closeLedger()

		eng, err := a.BuildEngine(s, ledger)
		if err != nil {
			return err
		}
		sig, err = eng.Confirm.Confirm(ctx, ref, by)
		return err
	})
	return sig, err
}

// Migrate applies schema migrations for the configured backends.
func (a *App) Migrate(ctx context.Context) error {
	if err := a.withStores(ctx, func(storage.Stores) error { return nil }); err != nil {
		return err
	}
	_, closeLedger, err := a.OpenLedger(ctx)
	if err != nil {
		return err
	}
	closeLedger()
	return nil
}

// WatchlistAdd flags a mint so discovery never buys it. Adding an already
// listed mint is not an error.
func (a *App) WatchlistAdd(ctx context.Context, mint, reason string) (bool, error) {
	added := false
	err := a.withStores(ctx, func(s storage.Stores) error {
		err := s.Watchlist.Add(ctx, &domain.WatchlistEntry{
			Mint:    mint,
			Reason:  reason,
			AddedAt: time.Now().UnixMilli(),
		})
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil
		}
		added = err == nil
		return err
	})
	return added, err
}

// WatchlistList returns every flagged mint.
func (a *App) WatchlistList(ctx context.Context) ([]*domain.WatchlistEntry, error) {
	var out []*domain.WatchlistEntry
	err := a.withStores(ctx, func(s storage.Stores) error {
		var err error
		out, err = s.Watchlist.List(ctx)
		return err
	})
	return out, err
}
