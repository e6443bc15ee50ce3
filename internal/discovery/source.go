// Package discovery turns on-chain state into scored inputs: fresh Raydium
// pool candidates, holder distributions and chain-age estimates.
package discovery

import (
	"context"

	"solana-risk-ladder/internal/domain"
)

// CandidateSource produces fresh pool candidates for one discovery sweep.
// A retrieval failure is returned as an error wrapping
// domain.ErrDataUnavailable; callers treat it as an empty sweep.
type CandidateSource interface {
	Candidates(ctx context.Context) ([]domain.PoolCandidate, error)
}

// HolderSource returns the largest holders of a mint.
type HolderSource interface {
	Holders(ctx context.Context, mint string) (*domain.HolderDistribution, error)
}

// AgeSource estimates how old a candidate is, in minutes.
type AgeSource interface {
	AgeMinutes(ctx context.Context, c domain.PoolCandidate) (float64, error)
}
