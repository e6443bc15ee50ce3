package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"solana-risk-ladder/internal/app"
	"solana-risk-ladder/internal/domain"
)

func formatMs(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05")
}

func printPositions(out io.Writer, views []app.PositionView) {
	if len(views) == 0 {
		fmt.Fprintln(out, "no positions")
		return
	}

	table := tablewriter.NewWriter(out)
	table.Header("Mint", "Status", "Score", "Spent SOL", "Tokens", "Users", "Exits", "Created")
	for _, v := range views {
		p := v.Position
		exits := make([]string, 0, len(v.Executions))
		for _, e := range v.Executions {
			exits = append(exits, strconv.Itoa(e.CheckpointPct))
		}
		exitLabel := "-"
		if len(exits) > 0 {
			exitLabel = strings.Join(exits, ",")
		}
		table.Append(
			p.Mint,
			string(p.Status),
			strconv.Itoa(p.Score),
			domain.LamportsToSOL(p.SpentLamports).StringFixed(3),
			p.TokenAmount.String(),
			strconv.Itoa(len(p.Contributors)),
			exitLabel,
			formatMs(p.CreatedAt),
		)
	}
	table.Render()
}

func printUsers(out io.Writer, users []*domain.UserProfile) {
	if len(users) == 0 {
		fmt.Fprintln(out, "no users")
		return
	}

	table := tablewriter.NewWriter(out)
	table.Header("ID", "Risk %", "Cash-out %", "Updated")
	for _, u := range users {
		table.Append(
			strconv.FormatInt(u.ID, 10),
			strconv.Itoa(u.RiskThreshold),
			strconv.Itoa(u.CashoutTarget),
			formatMs(u.UpdatedAt),
		)
	}
	table.Render()
}

func printWatchlist(out io.Writer, entries []*domain.WatchlistEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "watchlist is empty")
		return
	}

	table := tablewriter.NewWriter(out)
	table.Header("Mint", "Reason", "Added")
	for _, e := range entries {
		table.Append(e.Mint, e.Reason, formatMs(e.AddedAt))
	}
	table.Render()
}
