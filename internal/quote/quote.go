// Package quote defines the swap quote abstraction used by the
// aggregator and the checkpoint engine.
package quote

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"solana-risk-ladder/internal/domain"
)

// Direction is the side of a swap relative to SOL.
type Direction int

const (
	// Buy spends lamports for token atoms.
	Buy Direction = iota
	// Sell spends token atoms for lamports.
	Sell
)

// String returns "buy" or "sell".
func (d Direction) String() string {
	if d == Sell {
		return "sell"
	}
	return "buy"
}

// Quote is a priced route. Amounts are in base units of each side:
// lamports and atoms.
type Quote struct {
	Mint      string
	Direction Direction
	InAmount  decimal.Decimal
	OutAmount decimal.Decimal

	// Route is the provider's opaque quote, passed back to BuildSwap.
	Route []byte
}

// Provider prices swaps and builds unsigned swap transactions.
type Provider interface {
	// Quote prices amount (lamports for Buy, atoms for Sell).
	Quote(ctx context.Context, mint string, dir Direction, amount decimal.Decimal) (*Quote, error)

	// BuildSwap returns the unsigned transaction for q, base64 encoded.
	BuildSwap(ctx context.Context, q *Quote) (string, error)
}

// Validate rejects degenerate quotes.
func (q *Quote) Validate() error {
	if q == nil {
		return fmt.Errorf("nil quote: %w", domain.ErrQuoteUnavailable)
	}
	if q.InAmount.Sign() <= 0 || q.OutAmount.Sign() <= 0 {
		return fmt.Errorf("degenerate quote in=%s out=%s: %w", q.InAmount, q.OutAmount, domain.ErrQuoteUnavailable)
	}
	return nil
}

// PricePerAtom returns lamports per token atom for a validated quote,
// whichever the direction.
func (q *Quote) PricePerAtom() decimal.Decimal {
	if q.Direction == Sell {
		return q.OutAmount.Div(q.InAmount)
	}
	return q.InAmount.Div(q.OutAmount)
}
