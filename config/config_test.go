package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/perpbt/sim"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, 10000.0, cfg.Backtest.InitialCash)
	assert.Equal(t, 0.0008, cfg.Backtest.FeeRate)
	assert.Equal(t, 1, cfg.Backtest.PositionDelay)
	assert.Equal(t, "csv", cfg.Journal.Type)
	assert.Equal(t, sim.DefaultConfig(), cfg.SimConfig())
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "zero cash",
			mutate:  func(c *Config) { c.Backtest.InitialCash = 0 },
			wantErr: true,
			errMsg:  "initial_cash",
		},
		{
			name:    "zero leverage",
			mutate:  func(c *Config) { c.Backtest.Leverage = 0 },
			wantErr: true,
			errMsg:  "leverage",
		},
		{
			name:    "fee rate of one",
			mutate:  func(c *Config) { c.Backtest.FeeRate = 1 },
			wantErr: true,
			errMsg:  "fee_rate",
		},
		{
			name:    "negative stop loss",
			mutate:  func(c *Config) { c.Backtest.StopLossPct = -0.1 },
			wantErr: true,
			errMsg:  "backtest.stop_loss_pct must not be negative",
		},
		{
			name:    "negative offset",
			mutate:  func(c *Config) { c.Data.Offset = -1 },
			wantErr: true,
			errMsg:  "data.offset must not be negative",
		},
		{
			name:    "negative delay",
			mutate:  func(c *Config) { c.Backtest.PositionDelay = -1 },
			wantErr: true,
			errMsg:  "backtest.position_delay must not be negative",
		},
		{
			name:    "bad timeframe",
			mutate:  func(c *Config) { c.Data.Timeframe = "1X" },
			wantErr: true,
			errMsg:  "data.timeframe",
		},
		{
			name:    "bad from",
			mutate:  func(c *Config) { c.Data.From = "yesterday" },
			wantErr: true,
			errMsg:  "data.from",
		},
		{
			name: "inverted window",
			mutate: func(c *Config) {
				c.Data.From = "2021-06-01"
				c.Data.To = "2021-01-01"
			},
			wantErr: true,
			errMsg:  "data.to is before data.from",
		},
		{
			name:    "unknown encoding",
			mutate:  func(c *Config) { c.Data.LotSizesEncoding = "latin1" },
			wantErr: true,
			errMsg:  "data.lot_sizes_encoding",
		},
		{
			name:    "unknown rank metric",
			mutate:  func(c *Config) { c.Sweep.RankBy = "luck" },
			wantErr: true,
			errMsg:  "sweep.rank_by",
		},
		{
			name:    "negative workers",
			mutate:  func(c *Config) { c.Sweep.Workers = -2 },
			wantErr: true,
			errMsg:  "sweep.workers must not be negative",
		},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.Journal.Type = "sqlite"
			},
			wantErr: true,
			errMsg:  "journal db_path required for SQLite type",
		},
		{
			name: "postgres without dsn",
			mutate: func(c *Config) {
				c.Journal.Type = "postgres"
			},
			wantErr: true,
			errMsg:  "journal postgres_dsn required for Postgres type",
		},
		{
			name: "clickhouse without dsn",
			mutate: func(c *Config) {
				c.Journal.Type = "clickhouse"
			},
			wantErr: true,
			errMsg:  "journal clickhouse_dsn required for ClickHouse type",
		},
		{
			name:    "unknown journal",
			mutate:  func(c *Config) { c.Journal.Type = "mongo" },
			wantErr: true,
			errMsg:  "journal.type must be one of",
		},
		{
			name:   "journal disabled",
			mutate: func(c *Config) { c.Journal.Type = "none" },
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: true,
			errMsg:  "log.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("JSON format", func(t *testing.T) {
		cfg := Default()
		cfg.Backtest.Leverage = 3
		cfg.Sweep.Timeout = 90 * time.Second
		path := filepath.Join(tmpDir, "config.json")

		require.NoError(t, cfg.SaveToFile(path))

		loaded, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, loaded)
	})

	t.Run("YAML format", func(t *testing.T) {
		cfg := Default()
		cfg.Data.Symbols = []string{"BTC-USDT", "ETH-USDT"}
		cfg.Sweep.Strategies = []string{"sma", "donchian"}
		cfg.Sweep.Timeout = 2 * time.Minute
		path := filepath.Join(tmpDir, "config.yaml")

		require.NoError(t, cfg.SaveToFile(path))

		loaded, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, loaded)
	})
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backtest:\n  leverage: 5\nsweep:\n  timeout: 45s\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.Backtest.Leverage)
	assert.Equal(t, 45*time.Second, cfg.Sweep.Timeout)
	assert.Equal(t, 10000.0, cfg.Backtest.InitialCash)
	assert.Equal(t, "1H", cfg.Data.Timeframe)
}

func TestLoadInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "invalid.yaml")

	require.NoError(t, os.WriteFile(path, []byte("invalid: [yaml: content"), 0644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)

	_, err = LoadFromFile(filepath.Join(tmpDir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PERPBT_BACKTEST_LEVERAGE", "4")
	t.Setenv("PERPBT_BACKTEST_STOP_LOSS_PCT", "0.05")
	t.Setenv("PERPBT_JOURNAL_TYPE", "sqlite")
	t.Setenv("PERPBT_JOURNAL_DB_PATH", "/tmp/runs.db")
	t.Setenv("PERPBT_DATA_SYMBOLS", "BTC-USDT,ETH-USDT")
	t.Setenv("PERPBT_SWEEP_TIMEOUT", "10s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.Backtest.Leverage)
	assert.Equal(t, 0.05, cfg.Backtest.StopLossPct)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
	assert.Equal(t, "/tmp/runs.db", cfg.Journal.DBPath)
	assert.Equal(t, []string{"BTC-USDT", "ETH-USDT"}, cfg.Data.Symbols)
	assert.Equal(t, 10*time.Second, cfg.Sweep.Timeout)
}

func TestApplyEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("PERPBT_LOG_LEVEL=debug\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("PERPBT_LOG_LEVEL") })

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envFile))
	assert.Equal(t, "debug", cfg.Log.Level)

	// missing env files are not an error
	require.NoError(t, Default().ApplyEnv(filepath.Join(t.TempDir(), "nope.env")))
}

func TestSettings(t *testing.T) {
	cfg := Default()
	cfg.Data.From = "2021-01-01"
	cfg.Data.To = "2021-03-01 12:00:00"
	cfg.Backtest.StopLossPct = 0.1

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), s.From)
	assert.Equal(t, time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC), s.To)
	assert.Equal(t, 0.1, s.StopLossPct)
	assert.Equal(t, cfg.SimConfig(), s.Sim)

	tf, err := cfg.Timeframe()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, tf)
}

func TestLotSizes(t *testing.T) {
	cfg := Default()
	ls, err := cfg.LotSizes()
	require.NoError(t, err)
	assert.Equal(t, cfg.Backtest.LotSize, ls.Get("BTC-USDT"))

	path := filepath.Join(t.TempDir(), "lots.csv")
	require.NoError(t, os.WriteFile(path, []byte("symbol,lot_size\nBTC-USDT,0.01\n"), 0644))
	cfg.Data.LotSizes = path
	ls, err = cfg.LotSizes()
	require.NoError(t, err)
	assert.Equal(t, 0.01, ls.Get("BTC-USDT"))
	assert.Equal(t, cfg.Backtest.LotSize, ls.Get("ETH-USDT"))
}
