package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultLadder is the checkpoint ladder, percent gain above entry.
var DefaultLadder = []int{7, 14, 21, 28, 35, 50, 75, 100}

// CheckpointExecution is a staged partial exit for one rung of a position.
// Corresponds to checkpoint_executions table. Immutable once created.
type CheckpointExecution struct {
	Mint          string          // PRIMARY KEY (mint, checkpoint_pct)
	CheckpointPct int             // PRIMARY KEY (mint, checkpoint_pct)
	Sellers       []Contributor   // contributors exiting at this rung
	SellTokens    decimal.Decimal // token atoms to sell
	GainPct       float64         // observed gain when the rung fired
	PriceNow      decimal.Decimal // lamports per token atom at evaluation
	Payload       string          // unsigned sell transaction, base64
	CreatedAt     int64           // Unix ms
}

// Clone returns a deep copy.
func (e *CheckpointExecution) Clone() *CheckpointExecution {
	cp := *e
	cp.Sellers = append([]Contributor(nil), e.Sellers...)
	return &cp
}

// NormalizeLadder sorts, dedupes and validates rungs.
func NormalizeLadder(rungs []int) ([]int, error) {
	if len(rungs) == 0 {
		return nil, fmt.Errorf("checkpoint ladder is empty")
	}
	seen := make(map[int]struct{}, len(rungs))
	out := make([]int, 0, len(rungs))
	for _, r := range rungs {
		if r <= 0 {
			return nil, fmt.Errorf("checkpoint %d must be positive", r)
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Ints(out)
	return out, nil
}
