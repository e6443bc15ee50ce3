package cli

import (
	"github.com/spf13/cobra"
)

var positionsStatus string

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List pooled positions and their staged exits",
	RunE: func(cmd *cobra.Command, args []string) error {
		views, err := getApp().ListPositions(cmd.Context(), positionsStatus)
		if err != nil {
			return err
		}
		printPositions(cmd.OutOrStdout(), views)
		return nil
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List user profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := getApp().ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		printUsers(cmd.OutOrStdout(), users)
		return nil
	},
}

func init() {
	positionsCmd.Flags().StringVar(&positionsStatus, "status", "", "Filter by status (pending, open, closed, expired)")
}
