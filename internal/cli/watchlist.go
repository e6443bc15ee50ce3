package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var watchlistReason string

var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Manage mints that discovery never buys",
}

var watchlistAddCmd = &cobra.Command{
	Use:   "add <mint>",
	Short: "Flag a mint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		added, err := getApp().WatchlistAdd(cmd.Context(), args[0], watchlistReason)
		if err != nil {
			return err
		}
		if added {
			fmt.Fprintf(cmd.OutOrStdout(), "%s added\n", args[0])
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s already listed\n", args[0])
		}
		return nil
	},
}

var watchlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List flagged mints",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := getApp().WatchlistList(cmd.Context())
		if err != nil {
			return err
		}
		printWatchlist(cmd.OutOrStdout(), entries)
		return nil
	},
}

func init() {
	watchlistAddCmd.Flags().StringVar(&watchlistReason, "reason", "", "Optional note")
	watchlistCmd.AddCommand(watchlistAddCmd)
	watchlistCmd.AddCommand(watchlistListCmd)
}
