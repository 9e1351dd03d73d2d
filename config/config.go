package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rustyeddy/tradier/tradier"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Environment variables the CLI reads credentials from.
const (
	EnvAccountID   = "TRADIER_ACCOUNT_ID"
	EnvAccessToken = "TRADIER_ACCESS_TOKEN"
)

// Config is the CLI configuration. Credentials are deliberately absent:
// they come from the environment, never from a file on disk.
type Config struct {
	// Environment is "live" or "sandbox"; BaseURL, when set, overrides it.
	Environment string `json:"environment" yaml:"environment"`
	BaseURL     string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Timeout     string `json:"timeout" yaml:"timeout"` // e.g. "30s"
	LogLevel    string `json:"log_level" yaml:"log_level"`
	Output      string `json:"output" yaml:"output"` // "table" or "json"
	UserAgent   string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration as YAML or JSON depending on the extension
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		if _, err := tradier.BaseURL(c.Environment); err != nil {
			return fmt.Errorf("environment: %w", err)
		}
	} else if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base_url must be an http(s) url")
	}
	if d, err := c.TimeoutDuration(); err != nil {
		return fmt.Errorf("timeout: %w", err)
	} else if d < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Output != "table" && c.Output != "json" {
		return fmt.Errorf("output must be 'table' or 'json'")
	}
	return nil
}

// TimeoutDuration parses Timeout; empty means no client-side timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Timeout)
}

// APIBaseURL resolves the API root from BaseURL or Environment.
func (c *Config) APIBaseURL() (string, error) {
	if c.BaseURL != "" {
		return c.BaseURL, nil
	}
	return tradier.BaseURL(c.Environment)
}

// ClientOptions translates the config into tradier client options.
func (c *Config) ClientOptions(logger logrus.FieldLogger) ([]tradier.Option, error) {
	base, err := c.APIBaseURL()
	if err != nil {
		return nil, err
	}
	timeout, err := c.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	opts := []tradier.Option{
		tradier.WithBaseURL(base),
		tradier.WithHTTPClient(&http.Client{Timeout: timeout}),
		tradier.WithLogger(logger),
	}
	if c.UserAgent != "" {
		opts = append(opts, tradier.WithUserAgent(c.UserAgent))
	}
	return opts, nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Environment: "sandbox",
		Timeout:     "30s",
		LogLevel:    "info",
		Output:      "table",
	}
}

// ResolveCredentials prefers explicit values and reads the environment
// only for the ones left empty. The result is validated, so a missing
// pair surfaces as *tradier.ConfigurationError.
func ResolveCredentials(explicit tradier.Credentials, getenv func(string) string) (tradier.Credentials, error) {
	creds := explicit
	if creds.AccountID == "" {
		creds.AccountID = strings.TrimSpace(getenv(EnvAccountID))
	}
	if creds.AccessToken == "" {
		creds.AccessToken = strings.TrimSpace(getenv(EnvAccessToken))
	}
	if err := creds.Validate(); err != nil {
		return tradier.Credentials{}, err
	}
	return creds, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process
// environment. Variables already set win. A missing file is not an error
// unless required is true.
func LoadDotEnv(path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s file: %w", path, err)
	}
	return nil
}
