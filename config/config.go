package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/sim"
	"github.com/rustyeddy/backtester/strategies"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the complete backtest configuration
type Config struct {
	Data      DataConfig      `json:"data" yaml:"data"`
	Account   AccountConfig   `json:"account" yaml:"account"`
	Strategy  StrategyConfig  `json:"strategy" yaml:"strategy"`
	Execution ExecutionConfig `json:"execution" yaml:"execution"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// DataConfig points at the bar file (.csv, .csv.xz or .parquet)
type DataConfig struct {
	Path string `json:"path" yaml:"path"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	Cash decimal.Decimal `json:"cash" yaml:"cash"`
}

// StrategyConfig selects the signal rule and what it trades
type StrategyConfig struct {
	Name       string          `json:"name" yaml:"name"`
	Symbol     string          `json:"symbol" yaml:"symbol"`
	Quantity   decimal.Decimal `json:"quantity" yaml:"quantity"`
	FastWindow int             `json:"fast_window" yaml:"fast_window"`
	SlowWindow int             `json:"slow_window" yaml:"slow_window"`
}

// ExecutionConfig contains fill and friction parameters
type ExecutionConfig struct {
	FeePerTrade decimal.Decimal `json:"fee_per_trade" yaml:"fee_per_trade"`
	SlippageBps decimal.Decimal `json:"slippage_bps" yaml:"slippage_bps"`
	FillOn      string          `json:"fill_on" yaml:"fill_on"` // "open" or "close"
}

// MetricsConfig contains statistics parameters
type MetricsConfig struct {
	PeriodsPerYear int `json:"periods_per_year" yaml:"periods_per_year"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type   string `json:"type" yaml:"type"` // "none", "csv", "sqlite" or "postgres"
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// OutputConfig controls the run directory
type OutputConfig struct {
	Dir        string `json:"dir" yaml:"dir"`
	CloseAtEnd bool   `json:"close_at_end" yaml:"close_at_end"`
	NoPlot     bool   `json:"no_plot" yaml:"no_plot"`
}

// LoggingConfig controls the slog handler
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

// LoadFromFile loads configuration from a file (JSON or YAML), applies
// environment overrides and validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from BACKTEST_* environment variables and
// LOG_LEVEL. Unparseable numeric values are left for Validate to report.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("BACKTEST_DATA"); v != "" {
		c.Data.Path = v
	}
	if v := os.Getenv("BACKTEST_CASH"); v != "" {
		if cash, err := decimal.NewFromString(v); err == nil {
			c.Account.Cash = cash
		}
	}
	if v := os.Getenv("BACKTEST_SYMBOL"); v != "" {
		c.Strategy.Symbol = v
	}
	if v := os.Getenv("BACKTEST_OUTPUT"); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv("BACKTEST_PG_DSN"); v != "" {
		c.Journal.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
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

// Validate checks if the configuration is valid. Errors wrap
// market.ErrConfig.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", err, market.ErrConfig)
	}
	return nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Data.Path) == "" {
		return fmt.Errorf("data.path is required")
	}
	if !c.Account.Cash.IsPositive() {
		return fmt.Errorf("account.cash must be positive")
	}
	if strings.TrimSpace(c.Strategy.Symbol) == "" {
		return fmt.Errorf("strategy.symbol is required")
	}
	if !c.Strategy.Quantity.IsPositive() {
		return fmt.Errorf("strategy.quantity must be positive")
	}
	if _, err := strategies.ByName(c.Strategy.Name, c.StrategyParams()); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if c.Execution.FeePerTrade.IsNegative() {
		return fmt.Errorf("execution.fee_per_trade must be >= 0")
	}
	if c.Execution.SlippageBps.IsNegative() {
		return fmt.Errorf("execution.slippage_bps must be >= 0")
	}
	if _, err := sim.ParseFillOn(c.Execution.FillOn); err != nil {
		return fmt.Errorf("execution.fill_on must be 'open' or 'close'")
	}
	if c.Metrics.PeriodsPerYear <= 0 {
		return fmt.Errorf("metrics.periods_per_year must be positive")
	}
	switch c.Journal.Type {
	case "", "none", "csv":
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "postgres":
		if c.Journal.DSN == "" {
			return fmt.Errorf("journal dsn required for Postgres type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv', 'sqlite' or 'postgres'")
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("output.dir is required")
	}
	return nil
}

// StrategyParams returns the strategy tunables.
func (c *Config) StrategyParams() strategies.Params {
	return strategies.Params{FastWindow: c.Strategy.FastWindow, SlowWindow: c.Strategy.SlowWindow}
}

// ExecutionModel builds the execution model described by the config.
func (c *Config) ExecutionModel() (*sim.ExecutionModel, error) {
	fill, err := sim.ParseFillOn(c.Execution.FillOn)
	if err != nil {
		return nil, err
	}
	return sim.NewExecutionModel(c.Execution.FeePerTrade, c.Execution.SlippageBps, fill)
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Path: "bars.csv",
		},
		Account: AccountConfig{
			Cash: decimal.NewFromInt(10000),
		},
		Strategy: StrategyConfig{
			Name:       "sma-cross",
			Symbol:     "AAPL",
			Quantity:   decimal.NewFromInt(1),
			FastWindow: 5,
			SlowWindow: 10,
		},
		Execution: ExecutionConfig{
			FeePerTrade: decimal.Zero,
			SlippageBps: decimal.Zero,
			FillOn:      "open",
		},
		Metrics: MetricsConfig{
			PeriodsPerYear: 252,
		},
		Journal: JournalConfig{
			Type: "csv",
		},
		Output: OutputConfig{
			Dir: "output",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
