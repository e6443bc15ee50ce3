// Package risk scores pool candidates and selects the users a score
// qualifies.
package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"solana-risk-ladder/internal/domain"
)

// ErrInsufficientData is returned when a candidate cannot be scored.
var ErrInsufficientData = fmt.Errorf("insufficient data: %w", domain.ErrDataUnavailable)

// Score weights.
const (
	concentrationWeight = 0.6
	liquidityNumerator  = 100.0
	ageNumerator        = 30.0
	topHolders          = 5

	MinScore = 0
	MaxScore = 100
)

// DefaultMinLiquidity is the liquidity floor in SOL.
var DefaultMinLiquidity = decimal.NewFromInt(30)

// Scorer computes the 0-100 risk heuristic. Higher means riskier:
// concentrated supply, thin liquidity and a young pool all add points.
// It is pure and safe for concurrent use.
type Scorer struct {
	minLiquidity decimal.Decimal
}

// NewScorer creates a scorer with the given liquidity floor in SOL.
func NewScorer(minLiquidity decimal.Decimal) *Scorer {
	return &Scorer{minLiquidity: minLiquidity}
}

// Score returns trunc(clamp(top5% × 0.6 + 100/(liq+1) + 30/(age+1), 0, 100)).
func (s *Scorer) Score(c domain.PoolCandidate, holders *domain.HolderDistribution, ageMinutes float64) (int, error) {
	if holders == nil || len(holders.Balances) == 0 {
		return 0, fmt.Errorf("%s: no holders: %w", c.Mint, ErrInsufficientData)
	}
	if holders.TotalSupply.Sign() <= 0 {
		return 0, fmt.Errorf("%s: supply %s: %w", c.Mint, holders.TotalSupply, ErrInsufficientData)
	}
	if c.Liquidity.LessThan(s.minLiquidity) {
		return 0, fmt.Errorf("%s: liquidity %s below %s: %w", c.Mint, c.Liquidity, s.minLiquidity, ErrInsufficientData)
	}
	if math.IsNaN(ageMinutes) || math.IsInf(ageMinutes, 0) {
		return 0, fmt.Errorf("%s: age %v: %w", c.Mint, ageMinutes, ErrInsufficientData)
	}

	concentration := Concentration(holders)
	liquidity := c.Liquidity.InexactFloat64()
	age := math.Max(ageMinutes, 0)

	raw := concentration*concentrationWeight +
		liquidityNumerator/(liquidity+1) +
		ageNumerator/(age+1)

	return clamp(raw), nil
}

// Concentration returns the percentage of supply held by the top five holders.
func Concentration(h *domain.HolderDistribution) float64 {
	return h.TopShare(topHolders).InexactFloat64()
}

func clamp(v float64) int {
	if math.IsNaN(v) || v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return int(v)
}

// IsInsufficient reports whether err means the candidate could not be scored.
func IsInsufficient(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}
