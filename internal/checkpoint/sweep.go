package checkpoint

import (
	"context"
	"fmt"

	"solana-risk-ladder/internal/domain"
)

// Walk is the outcome of one ladder walk for a position.
type Walk struct {
	Results map[int]Result // by rung, only rungs actually evaluated
	Stopped int            // rung the walk stopped at, 0 if it ran to the end
	Close   bool           // every resolvable contributor has exited
}

// Walk evaluates p against ladder in ascending order. It stops at the first
// Failed or below-checkpoint rung: higher rungs cannot fire on a price that
// missed a lower one. AlreadyDone and no-sellers rungs are skipped over.
func (e *Engine) Walk(ctx context.Context, p *domain.Position, ladder []int) (*Walk, error) {
	w := &Walk{Results: make(map[int]Result, len(ladder))}
	for _, pct := range ladder {
		if err := ctx.Err(); err != nil {
			return w, err
		}

		res := e.Evaluate(ctx, p, pct)
		w.Results[pct] = res

		if res.Status == Failed || (res.Status == NotYet && res.Reason == ReasonBelowCheckpoint) {
			w.Stopped = pct
			break
		}
	}

	done, err := e.executions.ListByMint(ctx, p.Mint)
	if err != nil {
		return w, fmt.Errorf("list executions %s: %w", p.Mint, err)
	}
	w.Close = Resolved(p.Contributors, done, ladderMax(ladder))
	return w, nil
}

// Resolved reports whether no un-exited contributor can still exit on a
// ladder whose top rung is maxPct.
func Resolved(contributors []domain.Contributor, executions []*domain.CheckpointExecution, maxPct int) bool {
	exited := make(map[int64]struct{})
	for _, ex := range executions {
		for _, s := range ex.Sellers {
			exited[s.UserID] = struct{}{}
		}
	}
	for _, c := range contributors {
		if _, gone := exited[c.UserID]; gone {
			continue
		}
		if c.CashoutTarget <= maxPct {
			return false
		}
	}
	return true
}

func ladderMax(ladder []int) int {
	m := 0
	for _, r := range ladder {
		if r > m {
			m = r
		}
	}
	return m
}
