// Package config loads and validates the application configuration from a
// YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Account  AccountConfig  `yaml:"account"`
	Exchange ExchangeConfig `yaml:"exchange"`
	Trading  TradingConfig  `yaml:"trading"`
	Journal  JournalConfig  `yaml:"journal"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// LogConfig controls the logger backend
type LogConfig struct {
	Level      string `yaml:"level"`
	TimeFormat string `yaml:"time_format"`
	Colored    bool   `yaml:"colored"`
	JSON       bool   `yaml:"json"`
}

// AccountConfig initializes the paper account
type AccountConfig struct {
	InitialBalance float64 `yaml:"initial_balance"`
}

// ExchangeConfig holds the market data source settings
type ExchangeConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Testnet   bool   `yaml:"testnet"`
}

// TradingConfig holds the execution engine settings
type TradingConfig struct {
	Symbol           string  `yaml:"symbol"`
	Timeframe        string  `yaml:"timeframe"`
	Window           int     `yaml:"window"`
	Cooldown         string  `yaml:"cooldown"`
	FeeRate          float64 `yaml:"fee_rate"`
	Slippage         float64 `yaml:"slippage"`
	MinOrderSize     float64 `yaml:"min_order_size"`
	ConfidenceSizing bool    `yaml:"confidence_sizing"`
	RiskPerPosition  float64 `yaml:"risk_per_position"`
	Leverage         float64 `yaml:"leverage"`
	ExitPriority     string  `yaml:"exit_priority"`
}

// JournalConfig selects the trade record backend
type JournalConfig struct {
	// Type is "buntdb" or "sql"; empty disables persistence
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

// TelegramConfig holds bot credentials and authorized users
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	Users   []int  `yaml:"users"`
}

// Load reads and validates a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when a field is omitted
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			TimeFormat: "2006-01-02 15:04:05",
			Colored:    true,
		},
		Account: AccountConfig{
			InitialBalance: 10000,
		},
		Trading: TradingConfig{
			Symbol:       "BTCUSDT",
			Timeframe:    "15m",
			Window:       200,
			FeeRate:      0.001,
			MinOrderSize: 0.00001,
			Leverage:     1,
		},
	}
}

// Validate checks the configuration for values the engines cannot work with
func (c *Config) Validate() error {
	if c.Account.InitialBalance < 0 {
		return fmt.Errorf("account.initial_balance must not be negative")
	}
	if c.Trading.Symbol == "" {
		return fmt.Errorf("trading.symbol is required")
	}
	if c.Trading.Timeframe == "" {
		return fmt.Errorf("trading.timeframe is required")
	}
	if c.Trading.FeeRate < 0 || c.Trading.Slippage < 0 {
		return fmt.Errorf("trading.fee_rate and trading.slippage must not be negative")
	}
	if c.Trading.RiskPerPosition < 0 || c.Trading.RiskPerPosition > 1 {
		return fmt.Errorf("trading.risk_per_position must be within [0, 1]")
	}
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required when telegram is enabled")
	}
	if c.Telegram.Enabled && len(c.Telegram.Users) == 0 {
		return fmt.Errorf("telegram.users must list at least one authorized user")
	}
	return nil
}
