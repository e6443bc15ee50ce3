package cli

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"solana-risk-ladder/internal/app"
	"solana-risk-ladder/internal/domain"
)

func TestPrintPositions(t *testing.T) {
	var buf bytes.Buffer
	printPositions(&buf, []app.PositionView{{
		Position: &domain.Position{
			Mint:          "MintA",
			Status:        domain.PositionOpen,
			Score:         72,
			SpentLamports: decimal.NewFromInt(30_000_000),
			TokenAmount:   decimal.NewFromInt(40000),
			Contributors:  []domain.Contributor{{UserID: 1}, {UserID: 2}, {UserID: 3}},
		},
		Executions: []*domain.CheckpointExecution{{CheckpointPct: 7}, {CheckpointPct: 14}},
	}})

	out := buf.String()
	assert.Contains(t, out, "MintA")
	assert.Contains(t, out, "open")
	assert.Contains(t, out, "0.030")
	assert.Contains(t, out, "7,14")
}

func TestPrintEmpty(t *testing.T) {
	var buf bytes.Buffer
	printPositions(&buf, nil)
	printUsers(&buf, nil)
	printWatchlist(&buf, nil)
	assert.Equal(t, "no positions\nno users\nwatchlist is empty\n", buf.String())
}

func TestPrintUsers(t *testing.T) {
	var buf bytes.Buffer
	printUsers(&buf, []*domain.UserProfile{{ID: 42, RiskThreshold: 80, CashoutTarget: 150}})
	out := buf.String()
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "80")
	assert.Contains(t, out, "150")
}
