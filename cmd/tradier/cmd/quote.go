package cmd

import (
	"fmt"

	"github.com/rustyeddy/tradier/tradier"
	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote SYMBOL...",
	Short: "Show quotes for one or more symbols",
	Long: `Fetch quotes for stocks, ETFs, indexes or option symbols.

Symbols Tradier does not recognise are listed after the table.

Examples:
  tradier quote AAPL MSFT
  tradier quote --greeks SPY240621C00500000`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuote,
}

var quoteGreeks bool

func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.Flags().BoolVar(&quoteGreeks, "greeks", false, "include greeks for option symbols")
}

func runQuote(cmd *cobra.Command, args []string) error {
	b, err := connect()
	if err != nil {
		return err
	}

	var resp *tradier.QuotesResponse
	if quoteGreeks {
		resp, err = b.GetQuotesWithGreeks(cmd.Context(), args...)
	} else {
		resp, err = b.GetQuotes(cmd.Context(), args...)
	}
	if err != nil {
		return fmt.Errorf("get quotes: %w", err)
	}

	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), resp)
	}
	renderQuotes(cmd.OutOrStdout(), resp, quoteGreeks)
	return nil
}
