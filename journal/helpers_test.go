package journal

import (
	"time"

	"github.com/rustyeddy/perpbt/backtest"
	"github.com/rustyeddy/perpbt/market/strategies"
	"github.com/rustyeddy/perpbt/sim"
)

var t0 = time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

func hour(n int) time.Time { return t0.Add(time.Duration(n) * time.Hour) }

// sampleResult is a four bar run with one long trade.
func sampleResult(runID string) *backtest.Result {
	settings := backtest.DefaultSettings()
	settings.StopLossPct = 0.05
	closes := []float64{100, 101, 103, 102}
	cum := []float64{1, 1.004, 1.02, 1.012}
	pos := []sim.Side{sim.Flat, sim.Long, sim.Long, sim.Long}
	sig := []sim.Signal{sim.SignalLong, sim.SignalNone, sim.SignalNone, sim.SignalNone}

	res := &backtest.Result{
		RunID:     runID,
		Symbol:    "BTC-USDT",
		Strategy:  "sma",
		Params:    strategies.Params{20},
		Timeframe: time.Hour,
		Settings:  settings,
		Trades: []sim.Trade{{
			ID:         1,
			Direction:  sim.Long,
			Start:      hour(1),
			End:        hour(3),
			EntryPrice: 100.5,
			ExitPrice:  102,
			Contracts:  99,
			Bars:       3,
			Return:     0.012,
			MinEquity:  1.004,
			EndEquity:  1.012,
		}},
		Report: backtest.Report{
			Start:        hour(0),
			End:          hour(3),
			Bars:         4,
			FinalEquity:  1.012,
			AnnualReturn: 0.5,
			MaxDrawdown:  -0.0078,
			Calmar:       64.1,
			Sharpe:       1.5,
			Trades:       1,
			Wins:         1,
			WinRate:      1,
		},
		Created: t0.Add(48 * time.Hour),
		Elapsed: 1500 * time.Millisecond,
	}
	for i := range closes {
		res.Rows = append(res.Rows, backtest.Row{
			Time:       hour(i),
			Close:      closes[i],
			Signal:     sig[i],
			Position:   pos[i],
			NetValue:   10000 * cum[i],
			Cumulative: cum[i],
		})
	}
	return res
}
