package folio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the engine needs to run: where the transaction log
// lives, the reporting currency, the confidence gate thresholds, and the
// external price and extraction services.
type Config struct {
	Currency string `yaml:"currency"`
	LogPath  string `yaml:"log_path"`

	Gate struct {
		FieldThreshold float64 `yaml:"field_threshold"`
		MeanThreshold  float64 `yaml:"mean_threshold"`
	} `yaml:"gate"`

	Prices struct {
		URL     string        `yaml:"url"`  // quote endpoint with a {symbol} placeholder
		Path    string        `yaml:"path"` // jsonpath to the quote value
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"prices"`

	Extract struct {
		Model string `yaml:"model"`
	} `yaml:"extract"`

	Skew time.Duration `yaml:"skew"` // future-timestamp tolerance
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	c := &Config{
		Currency: "USD",
		LogPath:  filepath.Join(configDir(), "transactions.db"),
		Skew:     DefaultSkew,
	}
	c.Gate.FieldThreshold = DefaultFieldThreshold
	c.Gate.MeanThreshold = DefaultMeanThreshold
	c.Prices.Timeout = DefaultPriceTimeout
	c.Extract.Model = "gemini-2.5-flash"
	return c
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "folio")
}

// LoadConfig reads a YAML configuration file, filling anything left unset with
// the defaults. A missing file is not an error: the defaults apply.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if c.LogPath == "" {
		return fmt.Errorf("log_path is required")
	}
	if c.Gate.FieldThreshold < 0 || c.Gate.FieldThreshold > 1 {
		return fmt.Errorf("gate.field_threshold must be between 0 and 1")
	}
	if c.Gate.MeanThreshold < 0 || c.Gate.MeanThreshold > 1 {
		return fmt.Errorf("gate.mean_threshold must be between 0 and 1")
	}
	if c.Skew < 0 {
		return fmt.Errorf("skew must not be negative")
	}
	return nil
}

// GatePolicy returns the confidence gate configured here.
func (c *Config) GatePolicy() GatePolicy {
	return GatePolicy{FieldThreshold: c.Gate.FieldThreshold, MeanThreshold: c.Gate.MeanThreshold}
}

// Normalizer returns the record normalizer configured here.
func (c *Config) Normalizer() Normalizer {
	return Normalizer{Currency: c.Currency, Skew: c.Skew}
}

// PriceSource returns the configured price oracle, or nil when no quote
// endpoint is configured.
func (c *Config) PriceSource() *PriceSource {
	if c.Prices.URL == "" {
		return nil
	}
	return &PriceSource{URL: c.Prices.URL, Path: c.Prices.Path, Currency: c.Currency}
}
