package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rustyeddy/tradier/broker"
	"github.com/rustyeddy/tradier/config"
	"github.com/rustyeddy/tradier/tradier"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tradier",
	Short: "Command line access to a Tradier brokerage account",
	Long: `Tradier is a command line client for the Tradier brokerage API.

It provides tools for:
  - Quotes for stocks, ETFs, indexes and options
  - Listing positions and orders
  - Placing, previewing, modifying and canceling orders
  - Staging orders in the Tradier dashboard
  - Looking up option symbols

Credentials are read from TRADIER_ACCOUNT_ID and TRADIER_ACCESS_TOKEN,
optionally loaded from a .env file.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	cfgFile    string
	envFile    string
	logLevel   string
	outputFlag string
	accountID  string
	userAgent  string
	sandbox    bool
	live       bool
)

// Set up by setup before any subcommand runs.
var (
	cfg *config.Config
	log *logrus.Logger
)

// newBroker builds the brokerage client. Tests replace it.
var newBroker = func(cfg *config.Config, log logrus.FieldLogger) (broker.Broker, error) {
	creds, err := config.ResolveCredentials(tradier.Credentials{AccountID: accountID}, os.Getenv)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.ClientOptions(log)
	if err != nil {
		return nil, err
	}
	return tradier.NewClient(creds, opts...)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (YAML or JSON)")
	pf.StringVar(&envFile, "env-file", ".env", "file of KEY=VALUE pairs to load into the environment")
	pf.StringVar(&logLevel, "log-level", "", "log level (default $LOG_LEVEL, then config)")
	pf.StringVarP(&outputFlag, "output", "o", "", "output format: table or json (overrides config)")
	pf.StringVar(&accountID, "account", "", "account id (default $"+config.EnvAccountID+")")
	pf.StringVar(&userAgent, "user-agent", "", "User-Agent header sent to Tradier (default tradier-cli/<version>)")
	pf.BoolVar(&sandbox, "sandbox", false, "use the sandbox (paper trading) API")
	pf.BoolVar(&live, "live", false, "use the live brokerage API")
	rootCmd.MarkFlagsMutuallyExclusive("sandbox", "live")
}

func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(envFile, cmd.Flags().Changed("env-file")); err != nil {
		return err
	}

	c := config.Default()
	if cfgFile != "" {
		var err error
		if c, err = config.LoadFromFile(cfgFile); err != nil {
			return err
		}
	}
	switch {
	case sandbox:
		c.Environment, c.BaseURL = "sandbox", ""
	case live:
		c.Environment, c.BaseURL = "live", ""
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		c.LogLevel = lvl
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if outputFlag != "" {
		c.Output = outputFlag
	}
	if userAgent != "" {
		c.UserAgent = userAgent
	}
	if c.UserAgent == "" {
		c.UserAgent = "tradier-cli/" + version
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	l := logrus.New()
	l.SetOutput(cmd.ErrOrStderr())
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, _ := logrus.ParseLevel(c.LogLevel)
	l.SetLevel(lvl)

	cfg, log = c, l
	log.WithFields(logrus.Fields{"environment": c.Environment, "base_url": c.BaseURL}).Debug("settings loaded")
	return nil
}

func connect() (broker.Broker, error) {
	b, err := newBroker(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return b, nil
}
