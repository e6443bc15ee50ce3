package domain

import "github.com/shopspring/decimal"

// PositionStatus tracks a position through stage, confirm and exit.
type PositionStatus string

const (
	// PositionPending: buy staged, awaiting human confirmation.
	PositionPending PositionStatus = "pending"
	// PositionOpen: buy broadcast, checkpoints are evaluated.
	PositionOpen PositionStatus = "open"
	// PositionClosed: every resolvable contributor has exited.
	PositionClosed PositionStatus = "closed"
	// PositionExpired: buy was never confirmed within the TTL.
	PositionExpired PositionStatus = "expired"
)

// String returns the string representation of PositionStatus.
func (s PositionStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a known value.
func (s PositionStatus) IsValid() bool {
	switch s {
	case PositionPending, PositionOpen, PositionClosed, PositionExpired:
		return true
	}
	return false
}

// Position is a pooled buy of one mint on behalf of its contributors.
// Corresponds to positions table. One record per mint.
type Position struct {
	Mint          string          // PRIMARY KEY
	Pool          string          // AMM account the candidate came from
	Score         int             // risk score at buy time
	EntryPrice    decimal.Decimal // lamports per token atom (quote in / quote out)
	TokenAmount   decimal.Decimal // token atoms bought (quote out)
	SpentLamports decimal.Decimal // lamports spent (quote in)
	Contributors  []Contributor   // ordered, snapshotted at buy time
	Payload       string          // unsigned buy transaction, base64
	Status        PositionStatus
	CreatedAt     int64 // Unix ms
	UpdatedAt     int64 // Unix ms
}

// Clone returns a deep copy.
func (p *Position) Clone() *Position {
	cp := *p
	cp.Contributors = append([]Contributor(nil), p.Contributors...)
	return &cp
}

// Blocks reports whether this position prevents a new buy of the same mint.
func (p *Position) Blocks() bool {
	return p.Status != PositionExpired
}
