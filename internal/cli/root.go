// Package cli implements the perpbt command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/perpbt/config"
	"github.com/rustyeddy/perpbt/internal/logging"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// RootConfig holds the persistent flags.
type RootConfig struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	LogFormat  string
}

// Load builds the effective configuration and logger. Persistent flags
// that were set on the command line win over the file and environment.
func (rc *RootConfig) Load(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(rc.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = rc.LogLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = rc.LogFormat
	}
	if flags.Changed("db") {
		cfg.Journal.Type = "sqlite"
		cfg.Journal.DBPath = rc.DBPath
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:   "perpbt",
		Short: "perpbt — perpetual futures strategy backtester",
		Long: `perpbt backtests signal strategies on perpetual futures bars.

It provides tools for:
  - Single backtests with a full performance report
  - Parallel parameter sweeps ranked by calmar, sharpe or return
  - Journals of runs, trades and equity in CSV, SQLite, ClickHouse or Postgres`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (optional)")
	cmd.PersistentFlags().StringVar(&rc.DBPath, "db", "./perpbt.sqlite", "SQLite journal database")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().StringVar(&rc.LogFormat, "log-format", "console", "Log format: console|json")

	cmd.AddCommand(
		newBacktestCmd(rc),
		newSweepCmd(rc),
		newStrategiesCmd(),
		newConfigCmd(),
		newJournalCmd(rc),
		newVersionCmd(),
	)
	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "perpbt %s\n", Version)
		},
	}
}
