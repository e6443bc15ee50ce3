package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PoolCandidate is a freshly discovered Raydium pool quoted against WSOL.
// Ephemeral: produced once per discovery sweep and never persisted.
type PoolCandidate struct {
	Mint      string          // base token mint address
	Pool      string          // AMM account address
	Liquidity decimal.Decimal // SOL held in the quote vault
	OpenTime  int64           // pool open time, Unix seconds (0 if unknown)
}

// HolderDistribution is a snapshot of the largest holders of a mint.
type HolderDistribution struct {
	Balances    []decimal.Decimal // ranked descending, in token atoms
	TotalSupply decimal.Decimal   // in token atoms
}

// TopShare returns the percentage of supply held by the n largest balances.
// Balances need not be ranked.
func (h *HolderDistribution) TopShare(n int) decimal.Decimal {
	if h == nil || h.TotalSupply.Sign() <= 0 {
		return decimal.Zero
	}
	ranked := make([]decimal.Decimal, len(h.Balances))
	copy(ranked, h.Balances)
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].GreaterThan(ranked[j]) })
	if n > len(ranked) {
		n = len(ranked)
	}
	sum := decimal.Zero
	for _, b := range ranked[:n] {
		sum = sum.Add(b)
	}
	return sum.Div(h.TotalSupply).Mul(decimal.NewFromInt(100))
}
