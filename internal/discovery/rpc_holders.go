package discovery

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"solana-risk-ladder/internal/domain"
	"solana-risk-ladder/internal/solana"
)

// RPCHolderSource reads holders with getTokenLargestAccounts and
// getTokenSupply. The largest-accounts call returns at most 20 rows.
type RPCHolderSource struct {
	rpc solana.RPCClient
}

// NewRPCHolderSource creates a holder source backed by the node.
func NewRPCHolderSource(rpc solana.RPCClient) *RPCHolderSource {
	return &RPCHolderSource{rpc: rpc}
}

// Holders returns the ranked balances and total supply of mint, in atoms.
func (s *RPCHolderSource) Holders(ctx context.Context, mint string) (*domain.HolderDistribution, error) {
	largest, err := s.rpc.GetTokenLargestAccounts(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("largest accounts %s: %w: %v", mint, domain.ErrDataUnavailable, err)
	}
	if len(largest) == 0 {
		return nil, fmt.Errorf("largest accounts %s: %w: no holders", mint, domain.ErrDataUnavailable)
	}

	supply, err := s.rpc.GetTokenSupply(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("token supply %s: %w: %v", mint, domain.ErrDataUnavailable, err)
	}

	balances := make([]decimal.Decimal, len(largest))
	for i, a := range largest {
		balances[i] = a.Amount
	}
	rankDesc(balances)

	return &domain.HolderDistribution{
		Balances:    balances,
		TotalSupply: supply.Amount,
	}, nil
}

func rankDesc(ds []decimal.Decimal) {
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].GreaterThan(ds[j]) })
}
