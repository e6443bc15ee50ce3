package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"solana-risk-ladder/internal/domain"
)

var confirmBy int64

var confirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Broadcast a staged buy or sell without Telegram",
}

var confirmBuyCmd = &cobra.Command{
	Use:   "buy <mint>",
	Short: "Broadcast the staged buy of a mint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfirm(cmd, domain.ActionRef{Kind: domain.ActionBuy, Mint: args[0]})
	},
}

var confirmSellCmd = &cobra.Command{
	Use:   "sell <mint> <checkpoint-pct>",
	Short: "Broadcast the staged sell of one checkpoint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pct, err := strconv.Atoi(args[1])
		if err != nil || pct <= 0 {
			return fmt.Errorf("checkpoint must be a positive integer, got %q", args[1])
		}
		return runConfirm(cmd, domain.ActionRef{Kind: domain.ActionSell, Mint: args[0], CheckpointPct: pct})
	},
}

func runConfirm(cmd *cobra.Command, ref domain.ActionRef) error {
	sig, err := getApp().Confirm(cmd.Context(), ref, confirmBy)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s broadcast: %s\n", ref.Key(), sig)
	return nil
}

func init() {
	confirmCmd.PersistentFlags().Int64Var(&confirmBy, "by", 0, "User id recorded as the confirmer")
	confirmCmd.AddCommand(confirmBuyCmd)
	confirmCmd.AddCommand(confirmSellCmd)
}
