package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/perpbt/backtest"
	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/sim"
)

// ErrNotFound is returned by lookups for unknown run ids.
var ErrNotFound = errors.New("journal: not found")

// BacktestRun is the summary row of one run.
type BacktestRun struct {
	RunID     string
	Created   time.Time
	Symbol    string
	Strategy  string
	Params    string
	Timeframe string

	Start time.Time
	End   time.Time
	Bars  int

	// settings
	InitialCash   float64
	Leverage      float64
	FeeRate       float64
	Slippage      float64
	StopLossPct   float64
	PositionDelay int

	// results; returns are fractions
	FinalEquity  float64
	AnnualReturn float64
	MaxDrawdown  float64
	Calmar       float64
	Sharpe       float64
	Volatility   float64
	Trades       int
	Wins         int
	Losses       int
	Liquidations int
	WinRate      float64
	ProfitFactor float64
	AvgWin       float64
	AvgLoss      float64
	Elapsed      time.Duration

	// Only used by the org report.
	Notes       []string
	NextActions []string
}

// EndBalance is the account value implied by FinalEquity.
func (r BacktestRun) EndBalance() float64 {
	return r.InitialCash * r.FinalEquity
}

// TradeRecord is one position run.
type TradeRecord struct {
	TradeID    string
	RunID      string
	Symbol     string
	Direction  int
	OpenTime   time.Time
	CloseTime  time.Time
	EntryPrice float64
	ExitPrice  float64
	Contracts  int64
	Bars       int
	Return     float64
	MinEquity  float64
	Liquidated bool
}

// EquitySnapshot is one bar of the exported run table.
type EquitySnapshot struct {
	RunID      string
	Time       time.Time
	Close      float64
	Signal     *int // nil when the bar carries no signal
	Position   int
	NetValue   float64
	Cumulative float64
	Drawdown   float64
	Liquidated bool
}

// Journal records backtest runs. Implementations are safe for use by one
// goroutine at a time unless noted.
type Journal interface {
	RecordRun(ctx context.Context, run BacktestRun) error
	RecordTrades(ctx context.Context, trades []TradeRecord) error
	RecordEquity(ctx context.Context, rows []EquitySnapshot) error
	Close() error
}

// FromResult converts a run result into journal records.
func FromResult(res *backtest.Result) (BacktestRun, []TradeRecord, []EquitySnapshot) {
	tf, _ := market.TimeframeString(res.Timeframe)
	rep := res.Report
	s := res.Settings

	run := BacktestRun{
		RunID:         res.RunID,
		Created:       res.Created.UTC(),
		Symbol:        res.Symbol,
		Strategy:      res.Strategy,
		Params:        res.Params.String(),
		Timeframe:     tf,
		Start:         rep.Start.UTC(),
		End:           rep.End.UTC(),
		Bars:          rep.Bars,
		InitialCash:   s.Sim.InitialCash,
		Leverage:      s.Sim.Leverage,
		FeeRate:       s.Sim.FeeRate,
		Slippage:      s.Sim.Slippage,
		StopLossPct:   s.StopLossPct,
		PositionDelay: s.PositionDelay,
		FinalEquity:   rep.FinalEquity,
		AnnualReturn:  rep.AnnualReturn,
		MaxDrawdown:   rep.MaxDrawdown,
		Calmar:        rep.Calmar,
		Sharpe:        rep.Sharpe,
		Volatility:    rep.Volatility,
		Trades:        rep.Trades,
		Wins:          rep.Wins,
		Losses:        rep.Losses,
		Liquidations:  rep.Liquidations,
		WinRate:       rep.WinRate,
		ProfitFactor:  rep.ProfitFactor,
		AvgWin:        rep.AvgWin,
		AvgLoss:       rep.AvgLoss,
		Elapsed:       res.Elapsed,
	}

	trades := make([]TradeRecord, len(res.Trades))
	for i, t := range res.Trades {
		trades[i] = TradeRecord{
			TradeID:    fmt.Sprintf("%s-%04d", res.RunID, t.ID),
			RunID:      res.RunID,
			Symbol:     res.Symbol,
			Direction:  int(t.Direction),
			OpenTime:   t.Start.UTC(),
			CloseTime:  t.End.UTC(),
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			Contracts:  t.Contracts,
			Bars:       t.Bars,
			Return:     t.Return,
			MinEquity:  t.MinEquity,
			Liquidated: t.Liquidated,
		}
	}

	equity := make([]EquitySnapshot, len(res.Rows))
	for i, r := range res.Rows {
		equity[i] = EquitySnapshot{
			RunID:      res.RunID,
			Time:       r.Time.UTC(),
			Close:      r.Close,
			Signal:     signalValue(r.Signal),
			Position:   int(r.Position),
			NetValue:   r.NetValue,
			Cumulative: r.Cumulative,
			Drawdown:   r.Drawdown,
			Liquidated: r.Liquidated,
		}
	}
	return run, trades, equity
}

func signalValue(s sim.Signal) *int {
	if !s.IsSet() {
		return nil
	}
	v := int(s)
	return &v
}

// Record writes res to j. The per-bar equity table is only written when
// withEquity is set.
func Record(ctx context.Context, j Journal, res *backtest.Result, withEquity bool) error {
	run, trades, equity := FromResult(res)
	if err := j.RecordRun(ctx, run); err != nil {
		return fmt.Errorf("record run %s: %w", run.RunID, err)
	}
	if err := j.RecordTrades(ctx, trades); err != nil {
		return fmt.Errorf("record trades %s: %w", run.RunID, err)
	}
	if withEquity {
		if err := j.RecordEquity(ctx, equity); err != nil {
			return fmt.Errorf("record equity %s: %w", run.RunID, err)
		}
	}
	return nil
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRun(context.Context, BacktestRun) error         { return nil }
func (Nop) RecordTrades(context.Context, []TradeRecord) error    { return nil }
func (Nop) RecordEquity(context.Context, []EquitySnapshot) error { return nil }
func (Nop) Close() error                                         { return nil }
