package sim

import (
	"math"
	"time"

	"github.com/rustyeddy/perpbt/market"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// ohlc builds hourly bars from (open, close) pairs with a one point wick on
// each side.
func ohlc(pairs ...[2]float64) []market.Bar {
	bars := make([]market.Bar, len(pairs))
	for i, p := range pairs {
		o, c := p[0], p[1]
		bars[i] = market.Bar{
			Time:  t0.Add(time.Duration(i) * time.Hour),
			Open:  o,
			High:  math.Max(o, c) + 1,
			Low:   math.Min(o, c) - 1,
			Close: c,
		}
	}
	return bars
}

// wave is a deterministic price path with trend and oscillation.
func wave(n int) []market.Bar {
	pairs := make([][2]float64, n)
	prev := 100.0
	for i := range pairs {
		c := 100 + 15*math.Sin(float64(i)/6) + 0.05*float64(i)
		pairs[i] = [2]float64{prev, c}
		prev = c
	}
	return ohlc(pairs...)
}

// rotating emits long, short, flat every period bars.
func rotating(n, period int) []Signal {
	s := NewSignals(n)
	cycle := []Signal{SignalLong, SignalShort, SignalFlat}
	for i := 0; i < n; i += period {
		s[i] = cycle[(i/period)%len(cycle)]
	}
	return s
}

func flatConfig() Config {
	return Config{
		InitialCash:       10000,
		Leverage:          1,
		LotSize:           1,
		MaintenanceMargin: 0.01,
	}
}
