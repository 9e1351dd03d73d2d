package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Option chain helpers",
}

var optionsLookupCmd = &cobra.Command{
	Use:   "lookup UNDERLYING",
	Short: "List the option symbols of an underlying",
	Long: `List every option contract Tradier knows for an underlying,
grouped by root symbol.

Example:
  tradier options lookup SPY`,
	Args: cobra.ExactArgs(1),
	RunE: runOptionsLookup,
}

func init() {
	rootCmd.AddCommand(optionsCmd)
	optionsCmd.AddCommand(optionsLookupCmd)
}

func runOptionsLookup(cmd *cobra.Command, args []string) error {
	b, err := connect()
	if err != nil {
		return err
	}
	roots, err := b.LookupOptionSymbols(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("lookup option symbols: %w", err)
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), roots)
	}
	if len(roots) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no options for %s\n", args[0])
		return nil
	}
	renderOptionSymbols(cmd.OutOrStdout(), roots)
	return nil
}
