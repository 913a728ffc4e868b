package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/rustyeddy/perpbt/backtest"
	"github.com/rustyeddy/perpbt/config"
	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/market/strategies"
)

// dataSet is the loaded bars plus the per-symbol run settings. Symbols
// whose bars could not be loaded are kept in failures.
type dataSet struct {
	series   []*market.Series
	failures []loadFailure
	lots     *market.LotSizes
	settings backtest.Settings
}

type loadFailure struct {
	symbol string
	err    error
}

func loadData(cfg *config.Config, symbols []string, logger *zap.Logger) (*dataSet, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols given")
	}
	tf, err := cfg.Timeframe()
	if err != nil {
		return nil, err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	lots, err := cfg.LotSizes()
	if err != nil {
		return nil, fmt.Errorf("lot sizes: %w", err)
	}

	store := market.Store{Dir: cfg.Data.Dir, Offset: cfg.Data.Offset}
	ds := &dataSet{lots: lots, settings: settings}
	for _, sym := range symbols {
		s, err := store.Load(sym, tf)
		if err != nil {
			logger.Warn("load bars failed", zap.String("symbol", sym), zap.Error(err))
			ds.failures = append(ds.failures, loadFailure{symbol: sym, err: err})
			continue
		}
		logger.Debug("loaded bars",
			zap.String("symbol", sym),
			zap.Int("bars", s.Len()),
			zap.Time("first", s.First().Time),
			zap.Time("last", s.Last().Time),
		)
		ds.series = append(ds.series, s)
	}
	if len(ds.series) == 0 {
		errs := make([]error, len(ds.failures))
		for i, f := range ds.failures {
			errs[i] = f.err
		}
		return nil, errors.Join(errs...)
	}
	return ds, nil
}

// failedOutcomes reports every job of a symbol that failed to load as a
// failed outcome, numbered after the first offset outcomes.
func (ds *dataSet) failedOutcomes(strats []strategies.Strategy, offset int) backtest.Outcomes {
	var out backtest.Outcomes
	for _, f := range ds.failures {
		series := &market.Series{Symbol: f.symbol}
		for _, st := range strats {
			for _, p := range st.Candidates() {
				out = append(out, backtest.Outcome{
					Index: offset + len(out),
					Job:   backtest.Job{Series: series, Strategy: st, Params: p},
					Err:   fmt.Errorf("load %s: %w", f.symbol, f.err),
				})
			}
		}
	}
	return out
}

// settingsFor returns the run settings with symbol's lot size.
func (ds *dataSet) settingsFor(symbol string) backtest.Settings {
	s := ds.settings
	s.Sim.LotSize = ds.lots.Get(symbol)
	return s
}

// runJob is backtest.RunJob with per-symbol lot sizes.
func (ds *dataSet) runJob() backtest.RunFunc {
	return func(ctx context.Context, job backtest.Job) (*backtest.Result, error) {
		r := backtest.Runner{Strategy: job.Strategy, Settings: ds.settingsFor(job.Series.Symbol)}
		return r.Run(ctx, job.Series, job.Params)
	}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
