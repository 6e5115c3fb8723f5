package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete settlement-core configuration.
type Config struct {
	Exchange ExchangeConfig `json:"exchange" yaml:"exchange"`
	Trading  TradingConfig  `json:"trading" yaml:"trading"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Ledger   LedgerConfig   `json:"ledger" yaml:"ledger"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// ExchangeConfig selects the venue and execution mode. Credentials stay in
// the environment, never in the config file.
type ExchangeConfig struct {
	Mode    string `json:"mode" yaml:"mode"` // "paper" or "live"
	Testnet bool   `json:"testnet,omitempty" yaml:"testnet,omitempty"`
}

// TradingConfig describes the single traded pair.
type TradingConfig struct {
	Pair         string `json:"pair" yaml:"pair"`                   // e.g. "BTC/USDT"
	Timeframe    string `json:"timeframe" yaml:"timeframe"`         // e.g. "1d"
	HistoryLimit int    `json:"history_limit" yaml:"history_limit"` // bars per fetch
}

// CacheConfig controls price memoization.
type CacheConfig struct {
	TTL string `json:"ttl,omitempty" yaml:"ttl,omitempty"` // e.g. "60s", "5m"
}

// ParseTTL converts the TTL string to a duration; empty means the default.
func (c CacheConfig) ParseTTL() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	return time.ParseDuration(c.TTL)
}

// LedgerConfig locates the per-agent ledgers and history snapshots.
type LedgerConfig struct {
	DataDir    string `json:"data_dir" yaml:"data_dir"`
	HistoryDir string `json:"history_dir" yaml:"history_dir"`
}

// JournalConfig contains settlement-journal parameters.
type JournalConfig struct {
	Type string `json:"type" yaml:"type"` // "sqlite", "csv" or "none"
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on
// content; YAML is tried first).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
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

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Exchange.Mode != "paper" && c.Exchange.Mode != "live" {
		return fmt.Errorf("exchange.mode must be 'paper' or 'live'")
	}
	if c.Trading.Pair == "" {
		return fmt.Errorf("trading.pair is required")
	}
	if c.Trading.Timeframe == "" {
		return fmt.Errorf("trading.timeframe is required")
	}
	if c.Trading.HistoryLimit <= 0 {
		return fmt.Errorf("trading.history_limit must be positive")
	}
	if _, err := c.Cache.ParseTTL(); err != nil {
		return fmt.Errorf("cache.ttl: %w", err)
	}
	if c.Ledger.DataDir == "" {
		return fmt.Errorf("ledger.data_dir is required")
	}
	switch c.Journal.Type {
	case "sqlite", "csv":
		if c.Journal.Path == "" {
			return fmt.Errorf("journal.path required for %s journal", c.Journal.Type)
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv' or 'none'")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Exchange: ExchangeConfig{
			Mode:    "paper",
			Testnet: true,
		},
		Trading: TradingConfig{
			Pair:         "BTC/USDT",
			Timeframe:    "1d",
			HistoryLimit: 365,
		},
		Cache: CacheConfig{
			TTL: "60s",
		},
		Ledger: LedgerConfig{
			DataDir:    "./data/agent_data",
			HistoryDir: "./data/crypto_history",
		},
		Journal: JournalConfig{
			Type: "none",
		},
	}
}
