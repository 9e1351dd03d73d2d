package cmd

import (
	"fmt"

	"github.com/rustyeddy/tradier/broker"
	"github.com/spf13/cobra"
)

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List account positions",
	Args:  cobra.NoArgs,
	RunE:  runPositions,
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show positions priced at the last trade plus open orders",
	Long: `Fetch positions and orders, then quote every held symbol to show
market value and gain or loss per position.`,
	Args: cobra.NoArgs,
	RunE: runAccount,
}

func init() {
	rootCmd.AddCommand(positionsCmd)
	rootCmd.AddCommand(accountCmd)
}

func runPositions(cmd *cobra.Command, args []string) error {
	b, err := connect()
	if err != nil {
		return err
	}
	positions, err := b.GetPositions(cmd.Context())
	if err != nil {
		return fmt.Errorf("get positions: %w", err)
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), positions)
	}
	if len(positions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no positions")
		return nil
	}
	renderPositions(cmd.OutOrStdout(), positions)
	return nil
}

func runAccount(cmd *cobra.Command, args []string) error {
	b, err := connect()
	if err != nil {
		return err
	}
	acct, err := broker.Snapshot(cmd.Context(), b)
	if err != nil {
		return fmt.Errorf("account snapshot: %w", err)
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), acct)
	}
	renderAccount(cmd.OutOrStdout(), acct)
	return nil
}
