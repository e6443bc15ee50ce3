package risk

import "solana-risk-ladder/internal/domain"

// Select returns a contributor snapshot of every profile whose risk
// threshold is at most score, in input order. The result is never nil.
func Select(score int, profiles []*domain.UserProfile) []domain.Contributor {
	out := make([]domain.Contributor, 0, len(profiles))
	for _, p := range profiles {
		if p == nil {
			continue
		}
		if p.RiskThreshold <= score {
			out = append(out, domain.ContributorOf(p))
		}
	}
	return out
}
