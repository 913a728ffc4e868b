package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/perpbt/backtest"
	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/sim"
)

// EnvPrefix prefixes every environment override, e.g.
// PERPBT_BACKTEST_LEVERAGE=3 or PERPBT_JOURNAL_TYPE=sqlite.
const EnvPrefix = "PERPBT"

// Config is the complete perpbt configuration.
type Config struct {
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Sweep    SweepConfig    `json:"sweep" yaml:"sweep"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
}

// BacktestConfig contains the account and contract parameters
type BacktestConfig struct {
	InitialCash       float64 `json:"initial_cash" yaml:"initial_cash" split_words:"true"`
	FeeRate           float64 `json:"fee_rate" yaml:"fee_rate" split_words:"true"`
	Slippage          float64 `json:"slippage" yaml:"slippage"`
	Leverage          float64 `json:"leverage" yaml:"leverage"`
	MaintenanceMargin float64 `json:"maintenance_margin" yaml:"maintenance_margin" split_words:"true"`
	LotSize           float64 `json:"lot_size" yaml:"lot_size" split_words:"true"`
	StopLossPct       float64 `json:"stop_loss_pct" yaml:"stop_loss_pct" split_words:"true"`
	PositionDelay     int     `json:"position_delay" yaml:"position_delay" split_words:"true"`
}

// DataConfig locates the bar files
type DataConfig struct {
	Dir       string   `json:"dir" yaml:"dir"`
	Timeframe string   `json:"timeframe" yaml:"timeframe"`
	Symbols   []string `json:"symbols,omitempty" yaml:"symbols,omitempty"`
	From      string   `json:"from,omitempty" yaml:"from,omitempty"`
	To        string   `json:"to,omitempty" yaml:"to,omitempty"`
	// Offset picks one resampling offset from bar files with an offset column.
	Offset int `json:"offset,omitempty" yaml:"offset,omitempty"`

	// LotSizes is an optional symbol,lot_size table; symbols missing from it
	// use backtest.lot_size.
	LotSizes         string `json:"lot_sizes,omitempty" yaml:"lot_sizes,omitempty" split_words:"true"`
	LotSizesEncoding string `json:"lot_sizes_encoding,omitempty" yaml:"lot_sizes_encoding,omitempty" split_words:"true"`
}

// SweepConfig contains parameter sweep settings
type SweepConfig struct {
	Strategies []string      `json:"strategies,omitempty" yaml:"strategies,omitempty"`
	Workers    int           `json:"workers" yaml:"workers"`
	Timeout    time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	RankBy     string        `json:"rank_by" yaml:"rank_by" split_words:"true"`
	Top        int           `json:"top" yaml:"top"`
}

// JournalConfig selects where runs are recorded
type JournalConfig struct {
	Type          string `json:"type" yaml:"type"` // none, csv, sqlite, clickhouse or postgres
	Dir           string `json:"dir,omitempty" yaml:"dir,omitempty"`
	DBPath        string `json:"db_path,omitempty" yaml:"db_path,omitempty" split_words:"true"`
	ClickHouseDSN string `json:"clickhouse_dsn,omitempty" yaml:"clickhouse_dsn,omitempty" envconfig:"CLICKHOUSE_DSN"`
	PostgresDSN   string `json:"postgres_dsn,omitempty" yaml:"postgres_dsn,omitempty" envconfig:"POSTGRES_DSN"`
	OrgDir        string `json:"org_dir,omitempty" yaml:"org_dir,omitempty" split_words:"true"`
	Equity        bool   `json:"equity" yaml:"equity"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

type MetricsConfig struct {
	Addr      string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// Default returns a configuration with the reference contract parameters
func Default() *Config {
	s := sim.DefaultConfig()
	return &Config{
		Backtest: BacktestConfig{
			InitialCash:       s.InitialCash,
			FeeRate:           s.FeeRate,
			Slippage:          s.Slippage,
			Leverage:          s.Leverage,
			MaintenanceMargin: s.MaintenanceMargin,
			LotSize:           s.LotSize,
			PositionDelay:     sim.DefaultPositionDelay,
		},
		Data: DataConfig{
			Dir:       "./data",
			Timeframe: "1H",
		},
		Sweep: SweepConfig{
			RankBy: string(backtest.MetricCalmar),
			Top:    20,
		},
		Journal: JournalConfig{
			Type: "csv",
			Dir:  "./runs",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the effective configuration: defaults, then the file at path
// (if any), then .env and PERPBT_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (YAML, or JSON as a fallback).
// Keys missing from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.readFile(path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, c); err != nil {
		if jerr := json.Unmarshal(data, c); jerr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): %w", errors.Join(err, jerr))
		}
	}
	return nil
}

// ApplyEnv loads envFile into the process environment (a missing file is
// ignored; variables already set win) and applies PERPBT_* overrides.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, else JSON)
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

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.SimConfig().Validate(); err != nil {
		return fmt.Errorf("backtest: %w", err)
	}
	if c.Backtest.StopLossPct < 0 {
		return fmt.Errorf("backtest.stop_loss_pct must not be negative")
	}
	if c.Backtest.PositionDelay < 0 {
		return fmt.Errorf("backtest.position_delay must not be negative")
	}

	if _, err := market.ParseTimeframe(c.Data.Timeframe); err != nil {
		return fmt.Errorf("data.timeframe: %w", err)
	}
	from, to, err := c.Window()
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return fmt.Errorf("data.to is before data.from")
	}
	if c.Data.Offset < 0 {
		return fmt.Errorf("data.offset must not be negative")
	}
	switch strings.ToLower(c.Data.LotSizesEncoding) {
	case "", "utf-8", "utf8", "gbk", "gb18030":
	default:
		return fmt.Errorf("data.lot_sizes_encoding must be utf-8 or gbk")
	}

	if c.Sweep.Workers < 0 {
		return fmt.Errorf("sweep.workers must not be negative")
	}
	if c.Sweep.RankBy != "" {
		if _, err := backtest.Metric(c.Sweep.RankBy).Value(backtest.Report{}); err != nil {
			return fmt.Errorf("sweep.rank_by: %w", err)
		}
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal dir required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "clickhouse":
		if c.Journal.ClickHouseDSN == "" {
			return fmt.Errorf("journal clickhouse_dsn required for ClickHouse type")
		}
	case "postgres":
		if c.Journal.PostgresDSN == "" {
			return fmt.Errorf("journal postgres_dsn required for Postgres type")
		}
	default:
		return fmt.Errorf("journal.type must be one of none, csv, sqlite, clickhouse, postgres")
	}

	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format must be 'console' or 'json'")
	}
	return nil
}

// SimConfig returns the simulator parameters.
func (c *Config) SimConfig() sim.Config {
	b := c.Backtest
	return sim.Config{
		InitialCash:       b.InitialCash,
		FeeRate:           b.FeeRate,
		Slippage:          b.Slippage,
		Leverage:          b.Leverage,
		LotSize:           b.LotSize,
		MaintenanceMargin: b.MaintenanceMargin,
	}
}

// Window parses data.from and data.to; empty bounds are zero.
func (c *Config) Window() (from, to time.Time, err error) {
	if c.Data.From != "" {
		if from, err = market.ParseTime(c.Data.From); err != nil {
			return from, to, fmt.Errorf("data.from: %w", err)
		}
	}
	if c.Data.To != "" {
		if to, err = market.ParseTime(c.Data.To); err != nil {
			return from, to, fmt.Errorf("data.to: %w", err)
		}
	}
	return from, to, nil
}

// Settings returns the runner settings.
func (c *Config) Settings() (backtest.Settings, error) {
	from, to, err := c.Window()
	if err != nil {
		return backtest.Settings{}, err
	}
	return backtest.Settings{
		Sim:           c.SimConfig(),
		StopLossPct:   c.Backtest.StopLossPct,
		PositionDelay: c.Backtest.PositionDelay,
		From:          from,
		To:            to,
	}, nil
}

// Timeframe parses data.timeframe.
func (c *Config) Timeframe() (time.Duration, error) {
	return market.ParseTimeframe(c.Data.Timeframe)
}

// LotSizes loads the lot size table, or returns one holding only the
// default when none is configured.
func (c *Config) LotSizes() (*market.LotSizes, error) {
	if c.Data.LotSizes == "" {
		return market.NewLotSizes(c.Backtest.LotSize), nil
	}
	return market.LoadLotSizes(c.Data.LotSizes, c.Data.LotSizesEncoding, c.Backtest.LotSize)
}
