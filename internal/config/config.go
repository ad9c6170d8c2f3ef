// Package config loads service configuration from an optional YAML file
// with environment-variable overrides.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type PricingConfig struct {
	Mode           string  `yaml:"mode"`     // "yahoo" or "mock"
	BaseURL        string  `yaml:"base_url"` // yahoo mode only
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	MockPrice      float64 `yaml:"mock_price"` // fallback quote in mock mode
}

type TradingConfig struct {
	MarginPerLot   float64          `yaml:"margin_per_lot"`
	DefaultLotSize int64            `yaml:"default_lot_size"`
	LotSizes       map[string]int64 `yaml:"lot_sizes"`
	DepositRate    float64          `yaml:"deposit_rate"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	OutputFile string `yaml:"output_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type Config struct {
	Listen      string        `yaml:"listen"`
	DataDir     string        `yaml:"data_dir"`     // badger directory
	JournalPath string        `yaml:"journal_path"` // sqlite file
	Pricing     PricingConfig `yaml:"pricing"`
	Trading     TradingConfig `yaml:"trading"`
	Log         LogConfig     `yaml:"log"`
}

func defaults() Config {
	return Config{
		Listen:      ":8000",
		DataDir:     "data/ledger",
		JournalPath: "data/journal.db",
		Pricing: PricingConfig{
			Mode:           "yahoo",
			TimeoutSeconds: 5,
			MockPrice:      100,
		},
		Trading: TradingConfig{
			MarginPerLot:   5000,
			DefaultLotSize: 15,
			LotSizes:       map[string]int64{"^NSEI": 50},
			DepositRate:    0.07,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load reads path if it exists, then applies env overrides. A missing file
// is not an error; everything has a default.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "config: read file")
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, errors.Wrap(err, "config: parse yaml")
			}
		}
	}

	if v := os.Getenv("LEDGER_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("LEDGER_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("LEDGER_JOURNAL_PATH"); v != "" {
		cfg.JournalPath = v
	}
	if v := os.Getenv("LEDGER_PRICING_MODE"); v != "" {
		cfg.Pricing.Mode = v
	}
	if v := os.Getenv("LEDGER_PRICING_BASE_URL"); v != "" {
		cfg.Pricing.BaseURL = v
	}
	if v := os.Getenv("LEDGER_PRICING_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Pricing.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("LEDGER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return &cfg, nil
}

// PricingTimeout returns the quote timeout as a duration.
func (c *Config) PricingTimeout() time.Duration {
	return time.Duration(c.Pricing.TimeoutSeconds) * time.Second
}
