// Package stub provides an in-memory solana.RPCClient for tests.
package stub

import (
	"context"
	"errors"
	"sync"

	"solana-risk-ladder/internal/solana"
)

// ErrNotFound is returned for unknown mints.
var ErrNotFound = errors.New("not found")

// RPCClient implements solana.RPCClient from fixed fixtures.
// Set Err to make every call fail.
type RPCClient struct {
	mu sync.Mutex

	Slot            int64
	Accounts        map[string]*solana.AccountInfo
	ProgramAccounts map[string][]solana.KeyedAccount
	LargestAccounts map[string][]solana.TokenAmount
	Supplies        map[string]solana.TokenAmount
	Err             error

	// Sent records every transaction passed to SendTransaction.
	Sent []string
	// Signature is returned by SendTransaction.
	Signature string
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:        make(map[string]*solana.AccountInfo),
		ProgramAccounts: make(map[string][]solana.KeyedAccount),
		LargestAccounts: make(map[string][]solana.TokenAmount),
		Supplies:        make(map[string]solana.TokenAmount),
		Signature:       "stub-signature",
	}
}

var _ solana.RPCClient = (*RPCClient)(nil)

// GetSlot returns Slot.
func (c *RPCClient) GetSlot(_ context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return 0, c.Err
	}
	return c.Slot, nil
}

// GetAccountInfo returns the fixture or nil.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Accounts[pubkey], nil
}

// GetProgramAccounts returns fixtures for program. Filters are not applied.
func (c *RPCClient) GetProgramAccounts(_ context.Context, program string, _ []solana.AccountFilter) ([]solana.KeyedAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	return c.ProgramAccounts[program], nil
}

// GetMultipleAccounts returns fixtures in request order.
func (c *RPCClient) GetMultipleAccounts(_ context.Context, pubkeys []string) ([]*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	out := make([]*solana.AccountInfo, len(pubkeys))
	for i, k := range pubkeys {
		out[i] = c.Accounts[k]
	}
	return out, nil
}

// GetTokenLargestAccounts returns fixtures for mint.
func (c *RPCClient) GetTokenLargestAccounts(_ context.Context, mint string) ([]solana.TokenAmount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	return c.LargestAccounts[mint], nil
}

// GetTokenSupply returns the fixture supply or ErrNotFound.
func (c *RPCClient) GetTokenSupply(_ context.Context, mint string) (solana.TokenAmount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return solana.TokenAmount{}, c.Err
	}
	s, ok := c.Supplies[mint]
	if !ok {
		return solana.TokenAmount{}, ErrNotFound
	}
	return s, nil
}

// SendTransaction records tx and returns Signature.
func (c *RPCClient) SendTransaction(_ context.Context, tx string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return "", c.Err
	}
	c.Sent = append(c.Sent, tx)
	return c.Signature, nil
}
