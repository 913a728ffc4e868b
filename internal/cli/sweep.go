package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/perpbt/backtest"
	"github.com/rustyeddy/perpbt/internal/metrics"
	"github.com/rustyeddy/perpbt/journal"
	"github.com/rustyeddy/perpbt/market/strategies"
)

func newSweepCmd(rc *RootConfig) *cobra.Command {
	var (
		symbols     []string
		names       []string
		workers     int
		rankBy      string
		top         int
		metricsAddr string
		opts        overrides
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Sweep every candidate parameter set over symbols and strategies",
		Long: `Run symbols × strategies × candidate parameters on a worker pool and
print the best runs. A failing run is reported and never stops the others.

Examples:
  perpbt sweep --symbols BTC-USDT,ETH-USDT --strategies sma,donchian --rank-by calmar
  perpbt sweep --symbols BTC-USDT --workers 8 --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := rc.Load(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			f := cmd.Flags()
			if f.Changed("symbols") {
				cfg.Data.Symbols = symbols
			}
			if f.Changed("strategies") {
				cfg.Sweep.Strategies = names
			}
			if f.Changed("workers") {
				cfg.Sweep.Workers = workers
			}
			if f.Changed("rank-by") {
				cfg.Sweep.RankBy = rankBy
			}
			if f.Changed("top") {
				cfg.Sweep.Top = top
			}
			if f.Changed("metrics-addr") {
				cfg.Metrics.Addr = metricsAddr
			}
			if err := opts.apply(cmd, cfg); err != nil {
				return err
			}

			if len(cfg.Sweep.Strategies) == 0 {
				cfg.Sweep.Strategies = strategies.Names()
			}
			var strats []strategies.Strategy
			for _, n := range cfg.Sweep.Strategies {
				s, err := strategies.Get(n)
				if err != nil {
					return err
				}
				strats = append(strats, s)
			}

			ds, err := loadData(cfg, cfg.Data.Symbols, logger)
			if err != nil {
				return err
			}
			jobs := backtest.Grid(ds.series, strats)

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			if cfg.Sweep.Timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, cfg.Sweep.Timeout)
				defer cancel()
			}

			m := metrics.New(cfg.Metrics.Namespace, nil)
			if cfg.Metrics.Addr != "" {
				srvCtx, stop := context.WithCancel(context.Background())
				defer stop()
				go func() {
					if err := m.Serve(srvCtx, cfg.Metrics.Addr, logger); err != nil {
						logger.Error("metrics server", zap.Error(err))
					}
				}()
			}

			sw := backtest.Sweep{Workers: cfg.Sweep.Workers, Logger: logger, Metrics: m}
			outcomes := sw.Run(ctx, jobs, ds.runJob())
			unloaded := ds.failedOutcomes(strats, len(outcomes))
			for _, o := range unloaded {
				m.RecordRun(o.Job.Strategy.Name(), metrics.StatusFailed, 0, 0, 0, 0)
			}
			outcomes = append(outcomes, unloaded...)

			for _, o := range outcomes.Failed() {
				logger.Warn("run failed", zap.Stringer("job", o.Job), zap.Error(o.Err))
			}

			ranked, err := outcomes.Rank(backtest.Metric(cfg.Sweep.RankBy))
			if err != nil {
				return err
			}
			backtest.PrintRanking(cmd.OutOrStdout(), ranked, cfg.Sweep.Top)

			j, err := journal.Open(context.Background(), cfg.Journal)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer j.Close()
			for _, res := range ranked {
				if err := journal.Record(context.Background(), j, res, cfg.Journal.Equity); err != nil {
					return err
				}
			}

			if n := len(outcomes.Failed()); n > 0 {
				return fmt.Errorf("%d of %d runs failed", n, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&symbols, "symbols", nil, "Symbols to sweep (default: data.symbols)")
	cmd.Flags().StringSliceVar(&names, "strategies", nil, "Strategies to sweep (default: all)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker goroutines (default: number of CPUs)")
	cmd.Flags().StringVar(&rankBy, "rank-by", "", "Ranking metric: final_equity|annual_return|calmar|sharpe|max_drawdown|win_rate")
	cmd.Flags().IntVar(&top, "top", 0, "Number of ranked runs to print")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus /metrics on this address while sweeping")
	opts.register(cmd)

	return cmd
}
