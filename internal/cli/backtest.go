package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/perpbt/backtest"
	"github.com/rustyeddy/perpbt/config"
	"github.com/rustyeddy/perpbt/journal"
	"github.com/rustyeddy/perpbt/market/strategies"
)

func newBacktestCmd(rc *RootConfig) *cobra.Command {
	var (
		symbol   string
		strategy string
		params   string
		asJSON   bool
		orgDir   string
		notes    []string
		opts     overrides
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Backtest one strategy on one symbol",
		Long: `Run a single backtest and print its report.

Examples:
  perpbt backtest --symbol BTC-USDT --strategy sma --params 200
  perpbt backtest --symbol ETH-USDT --strategy ema-cross --params 12,26 --leverage 3 --stop-loss 0.05`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := rc.Load(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if err := opts.apply(cmd, cfg); err != nil {
				return err
			}

			strat, err := strategies.Get(strategy)
			if err != nil {
				return err
			}
			p, err := strategies.ParseParams(params)
			if err != nil {
				return fmt.Errorf("--params: %w", err)
			}

			ds, err := loadData(cfg, []string{symbol}, logger)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			series := ds.series[0]
			runner := backtest.Runner{Strategy: strat, Settings: ds.settingsFor(series.Symbol)}
			res, err := runner.Run(ctx, series, p)
			if err != nil {
				return err
			}
			logger.Info("backtest finished",
				zap.String("run_id", res.RunID),
				zap.String("symbol", res.Symbol),
				zap.String("strategy", res.Strategy),
				zap.Stringer("params", res.Params),
				zap.Float64("final_equity", res.Report.FinalEquity),
				zap.Int("trades", res.Report.Trades),
				zap.Duration("elapsed", res.Elapsed),
			)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res.Report); err != nil {
					return err
				}
			} else {
				backtest.PrintResult(out, res)
			}

			j, err := journal.Open(ctx, cfg.Journal)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer j.Close()
			if err := journal.Record(ctx, j, res, cfg.Journal.Equity); err != nil {
				return err
			}

			if orgDir == "" {
				orgDir = cfg.Journal.OrgDir
			}
			if orgDir != "" {
				run, trades, _ := journal.FromResult(res)
				run.Notes = notes
				path, err := journal.WriteOrgFile(orgDir, run, trades)
				if err != nil {
					return fmt.Errorf("write org report: %w", err)
				}
				logger.Info("wrote org report", zap.String("path", path))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "Symbol to test, e.g. BTC-USDT (required)")
	cmd.Flags().StringVar(&strategy, "strategy", "sma", "Strategy: "+strings.Join(strategies.Names(), "|"))
	cmd.Flags().StringVarP(&params, "params", "p", "", "Strategy parameters, e.g. 12,26 (default: strategy defaults)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().StringVar(&orgDir, "org", "", "Write an org-mode report into this directory")
	cmd.Flags().StringArrayVar(&notes, "note", nil, "Observation added to the org report (repeatable)")
	opts.register(cmd)
	_ = cmd.MarkFlagRequired("symbol")

	return cmd
}

// overrides are the data and contract flags shared by backtest and sweep.
type overrides struct {
	dataDir   string
	timeframe string
	from      string
	to        string
	leverage  float64
	stopLoss  float64
	delay     int
	equity    bool
}

func (o *overrides) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.dataDir, "data-dir", "", "Bar directory (<dir>/<timeframe>/<symbol>.csv)")
	f.StringVar(&o.timeframe, "timeframe", "", "Bar timeframe, e.g. 1H, 4H, 15T")
	f.StringVar(&o.from, "from", "", "First bar to simulate (inclusive)")
	f.StringVar(&o.to, "to", "", "Last bar to simulate (inclusive)")
	f.Float64Var(&o.leverage, "leverage", 0, "Leverage")
	f.Float64Var(&o.stopLoss, "stop-loss", 0, "Stop loss as a fraction of margin, 0 disables")
	f.IntVar(&o.delay, "delay", 0, "Bars between a signal and the position change")
	f.BoolVar(&o.equity, "equity", false, "Record the per-bar equity table in the journal")
}

func (o *overrides) apply(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("data-dir") {
		cfg.Data.Dir = o.dataDir
	}
	if f.Changed("timeframe") {
		cfg.Data.Timeframe = o.timeframe
	}
	if f.Changed("from") {
		cfg.Data.From = o.from
	}
	if f.Changed("to") {
		cfg.Data.To = o.to
	}
	if f.Changed("leverage") {
		cfg.Backtest.Leverage = o.leverage
	}
	if f.Changed("stop-loss") {
		cfg.Backtest.StopLossPct = o.stopLoss
	}
	if f.Changed("delay") {
		cfg.Backtest.PositionDelay = o.delay
	}
	if f.Changed("equity") {
		cfg.Journal.Equity = o.equity
	}
	return cfg.Validate()
}
