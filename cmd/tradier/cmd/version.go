package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the tradier CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tradier version %s\n", version)
		fmt.Fprintln(cmd.OutOrStdout(), "A command line client for the Tradier brokerage API")
		fmt.Fprintln(cmd.OutOrStdout(), "https://github.com/rustyeddy/tradier")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
