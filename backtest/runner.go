package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/market/strategies"
	"github.com/rustyeddy/perpbt/pkg/id"
	"github.com/rustyeddy/perpbt/sim"
)

var ErrEmptyWindow = errors.New("backtest: no bars in window")

// Settings controls one run. The zero PositionDelay holds positions from
// the signal bar itself; DefaultSettings uses sim.DefaultPositionDelay.
type Settings struct {
	Sim           sim.Config
	StopLossPct   float64
	PositionDelay int

	// From and To bound the simulated bars, inclusive. Signals are computed
	// on the full series first so indicators are warm at From.
	From time.Time
	To   time.Time
}

func DefaultSettings() Settings {
	return Settings{
		Sim:           sim.DefaultConfig(),
		PositionDelay: sim.DefaultPositionDelay,
	}
}

// Row is one bar of the exported run table.
type Row struct {
	Time       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Signal     sim.Signal
	Position   sim.Side
	NetValue   float64
	Cumulative float64
	Drawdown   float64
	Liquidated bool
}

// Result is everything one run produced.
type Result struct {
	RunID     string
	Symbol    string
	Strategy  string
	Params    strategies.Params
	Timeframe time.Duration
	Settings  Settings

	Rows        []Row
	Points      []sim.EquityPoint
	Trades      []sim.Trade
	Report      Report
	Diagnostics sim.Diagnostics

	Created time.Time
	Elapsed time.Duration
}

// Runner chains a strategy through the stop filter, position resolution,
// simulation, trade extraction and evaluation.
type Runner struct {
	Strategy strategies.Strategy
	Settings Settings
}

// Run backtests series with params. The series is read only and may be
// shared between concurrent runs.
func (r Runner) Run(ctx context.Context, series *market.Series, params strategies.Params) (*Result, error) {
	if r.Strategy == nil {
		return nil, fmt.Errorf("backtest: Strategy is required")
	}
	if series == nil {
		return nil, fmt.Errorf("backtest: series is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", series.Symbol, err)
	}
	if err := r.Settings.Sim.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	bars := series.Bars

	out, err := r.Strategy.Signals(bars, params)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.Strategy.Name(), params, err)
	}
	if len(out.Signals) != len(bars) {
		return nil, fmt.Errorf("%s: %w: %d signals for %d bars", r.Strategy.Name(), sim.ErrLengthMismatch, len(out.Signals), len(bars))
	}
	diag := out.Diagnostics
	if diag == nil {
		diag = sim.Diagnostics{}
	}

	sl := sim.StopLoss{Pct: r.Settings.StopLossPct, Leverage: r.Settings.Sim.Leverage}
	signals, err := sl.Apply(bars, out.Signals, diag)
	if err != nil {
		return nil, err
	}
	positions, err := sim.ResolvePositions(signals, r.Settings.PositionDelay)
	if err != nil {
		return nil, err
	}

	lo, hi := series.Index(r.Settings.From, r.Settings.To)
	if lo >= hi {
		return nil, fmt.Errorf("%w [%s, %s]", ErrEmptyWindow, r.Settings.From, r.Settings.To)
	}
	bars, signals, positions = bars[lo:hi], signals[lo:hi], positions[lo:hi]

	points, err := sim.Simulate(bars, positions, r.Settings.Sim)
	if err != nil {
		return nil, err
	}
	trades, err := sim.ExtractTrades(bars, points)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:       id.New(),
		Symbol:      series.Symbol,
		Strategy:    r.Strategy.Name(),
		Params:      params,
		Timeframe:   series.Timeframe,
		Settings:    r.Settings,
		Points:      points,
		Trades:      trades,
		Report:      Evaluate(points, trades, series.Timeframe),
		Diagnostics: diag,
		Created:     start.UTC(),
	}
	res.Rows = rows(bars, signals, points)
	res.Elapsed = time.Since(start)
	return res, nil
}

func rows(bars []market.Bar, signals []sim.Signal, points []sim.EquityPoint) []Row {
	dd := Drawdowns(points)
	out := make([]Row, len(bars))
	for i, b := range bars {
		p := points[i]
		out[i] = Row{
			Time:       b.Time,
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
			Signal:     signals[i],
			Position:   p.Position,
			NetValue:   p.NetValue,
			Cumulative: p.Cumulative,
			Drawdown:   dd[i],
			Liquidated: p.Liquidated,
		}
	}
	return out
}
