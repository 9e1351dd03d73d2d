package cmd

import (
	"fmt"

	"github.com/rustyeddy/tradier/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage the CLI configuration file.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Credentials never go in the file; set TRADIER_ACCOUNT_ID and
TRADIER_ACCESS_TOKEN or put them in a .env file.

Examples:
  tradier config init --file tradier.yaml
  tradier config validate --file tradier.yaml`,
	// The file being validated may be the one that would fail setup.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE:  runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "file", "f", "tradier.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit the file and run with:")
	fmt.Fprintf(cmd.OutOrStdout(), "  tradier --config %s positions\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	base, _ := cfg.APIBaseURL()
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(cmd.OutOrStdout(), "  Environment: %s (%s)\n", cfg.Environment, base)
	fmt.Fprintf(cmd.OutOrStdout(), "  Timeout: %s  Log level: %s  Output: %s\n", cfg.Timeout, cfg.LogLevel, cfg.Output)
	return nil
}
