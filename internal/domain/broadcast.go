package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionKind distinguishes the two confirmable actions.
type ActionKind string

const (
	ActionBuy  ActionKind = "buy"
	ActionSell ActionKind = "sell"
)

// ActionRef identifies a staged payload awaiting confirmation.
// CheckpointPct is zero for buys.
type ActionRef struct {
	Kind          ActionKind
	Mint          string
	CheckpointPct int
}

// Key renders the reference as used in callback data: buy:<mint> or sell:<mint>:<pct>.
func (a ActionRef) Key() string {
	if a.Kind == ActionSell {
		return fmt.Sprintf("sell:%s:%d", a.Mint, a.CheckpointPct)
	}
	return "buy:" + a.Mint
}

// Broadcast is a receipt of one confirm attempt.
// Corresponds to broadcasts table. Append-only.
type Broadcast struct {
	ID            string // PRIMARY KEY, uuid
	Kind          ActionKind
	Mint          string
	CheckpointPct int
	Signature     string // empty on failure
	Error         string // empty on success
	ConfirmedBy   int64  // Telegram user id, 0 when confirmed from the CLI
	CreatedAt     int64  // Unix ms
}

// Ref returns the action the receipt belongs to.
func (b *Broadcast) Ref() ActionRef {
	return ActionRef{Kind: b.Kind, Mint: b.Mint, CheckpointPct: b.CheckpointPct}
}

// Succeeded reports whether the payload reached the cluster.
func (b *Broadcast) Succeeded() bool {
	return b.Signature != "" && b.Error == ""
}

// ParseActionRef parses callback data produced by ActionRef.Key.
func ParseActionRef(s string) (ActionRef, error) {
	parts := strings.Split(s, ":")
	switch {
	case len(parts) == 2 && parts[0] == string(ActionBuy) && parts[1] != "":
		return ActionRef{Kind: ActionBuy, Mint: parts[1]}, nil
	case len(parts) == 3 && parts[0] == string(ActionSell) && parts[1] != "":
		pct, err := strconv.Atoi(parts[2])
		if err != nil || pct <= 0 {
			return ActionRef{}, fmt.Errorf("invalid checkpoint in %q", s)
		}
		return ActionRef{Kind: ActionSell, Mint: parts[1], CheckpointPct: pct}, nil
	}
	return ActionRef{}, fmt.Errorf("invalid action reference %q", s)
}
