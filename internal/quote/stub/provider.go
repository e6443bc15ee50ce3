// Package stub provides a deterministic quote.Provider for tests.
package stub

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/quote"
)

// Request records one Quote call.
type Request struct {
	Mint      string
	Direction quote.Direction
	Amount    decimal.Decimal
}

// Provider quotes at a fixed price per mint (lamports per atom).
type Provider struct {
	mu sync.Mutex

	prices   map[string]decimal.Decimal
	quoteErr error
	swapErr  error

	requests []Request
	swaps    int
}

// NewProvider creates an empty provider. Unknown mints fail to quote.
func NewProvider() *Provider {
	return &Provider{prices: make(map[string]decimal.Decimal)}
}

// SetPrice sets the price of mint in lamports per atom.
func (p *Provider) SetPrice(mint string, lamportsPerAtom decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[mint] = lamportsPerAtom
}

// FailQuotes makes every Quote call return err (nil to clear).
func (p *Provider) FailQuotes(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quoteErr = err
}

// FailSwaps makes every BuildSwap call return err (nil to clear).
func (p *Provider) FailSwaps(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.swapErr = err
}

// Requests returns a copy of the recorded quote requests.
func (p *Provider) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Request(nil), p.requests...)
}

// Swaps returns how many swaps were built.
func (p *Provider) Swaps() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.swaps
}

// Quote prices amount at the configured price, rounding output down.
func (p *Provider) Quote(_ context.Context, mint string, dir quote.Direction, amount decimal.Decimal) (*quote.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.requests = append(p.requests, Request{Mint: mint, Direction: dir, Amount: amount})
	if p.quoteErr != nil {
		return nil, fmt.Errorf("stub quote: %w", p.quoteErr)
	}
	price, ok := p.prices[mint]
	if !ok || price.Sign() <= 0 {
		return nil, fmt.Errorf("stub quote %s: %w", mint, domain.ErrQuoteUnavailable)
	}

	q := &quote.Quote{Mint: mint, Direction: dir, InAmount: amount}
	if dir == quote.Buy {
		q.OutAmount = amount.Div(price).Floor()
	} else {
		q.OutAmount = amount.Mul(price).Floor()
	}
	return q, nil
}

// BuildSwap returns a recognisable fake payload.
func (p *Provider) BuildSwap(_ context.Context, q *quote.Quote) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.swapErr != nil {
		return "", fmt.Errorf("stub swap: %w", p.swapErr)
	}
	p.swaps++
	raw := fmt.Sprintf("%s:%s:%s", q.Direction, q.Mint, q.InAmount)
	return base64.StdEncoding.EncodeToString([]byte(raw)), nil
}
