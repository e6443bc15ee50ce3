package domain

// Decision records what the discovery sweep did with a scored candidate.
type Decision string

const (
	DecisionInsufficient Decision = "insufficient"
	DecisionNoUsers      Decision = "no_users"
	DecisionStaged       Decision = "staged"
	DecisionNoAction     Decision = "no_action"
	DecisionFailed       Decision = "failed"
)

// ScoreObservation is one row of the append-only scoring ledger.
type ScoreObservation struct {
	Mint          string
	Pool          string
	Liquidity     float64 // SOL
	Top5Pct       float64
	AgeMinutes    float64
	Score         int // -1 when insufficient
	EligibleUsers int
	Decision      Decision
	ObservedAt    int64 // Unix ms
}

// WatchlistEntry flags a mint that discovery must never buy.
// Corresponds to watchlist table.
type WatchlistEntry struct {
	Mint    string // PRIMARY KEY
	Reason  string
	AddedAt int64 // Unix ms
}
