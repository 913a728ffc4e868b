package backtest

import (
	"math"
	"time"

	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/market/strategies"
	"github.com/rustyeddy/perpbt/sim"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// curve builds points spaced step apart whose cumulative equity follows changes.
func curve(step time.Duration, changes ...float64) []sim.EquityPoint {
	pts := make([]sim.EquityPoint, len(changes))
	cum := 1.0
	for i, c := range changes {
		cum *= 1 + c
		pts[i] = sim.EquityPoint{Time: t0.Add(time.Duration(i) * step), Change: c, Cumulative: cum}
	}
	return pts
}

func waveSeries(symbol string, n int) *market.Series {
	s := &market.Series{Symbol: symbol, Timeframe: time.Hour}
	prev := 100.0
	for i := 0; i < n; i++ {
		c := 100 + 20*math.Sin(float64(i)/15) + 5*math.Sin(float64(i)/3)
		s.Bars = append(s.Bars, market.Bar{
			Time:  t0.Add(time.Duration(i) * time.Hour),
			Open:  prev,
			High:  math.Max(prev, c) + 0.5,
			Low:   math.Min(prev, c) - 0.5,
			Close: c,
		})
		prev = c
	}
	return s
}

// fixed emits the signals it was built with.
type fixed struct {
	name    string
	signals func(n int) []sim.Signal
	calls   int
}

func (f *fixed) Name() string { return f.name }

func (f *fixed) Signals(bars []market.Bar, _ strategies.Params) (strategies.Output, error) {
	f.calls++
	return strategies.Output{Signals: f.signals(len(bars))}, nil
}

func (f *fixed) Candidates() []strategies.Params { return []strategies.Params{nil} }

func longAt(i int) func(n int) []sim.Signal {
	return func(n int) []sim.Signal {
		s := sim.NewSignals(n)
		if i < n {
			s[i] = sim.SignalLong
		}
		return s
	}
}
