package strategies

import (
	"fmt"

	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/market/indicators"
	"github.com/rustyeddy/perpbt/sim"
)

// ATRChannel is a volatility channel breakout. The middle band is the n bar
// SMA of closes and the outer bands sit mult ATRs away. A close above the
// previous bar's upper band goes long and a close below the previous lower
// band goes short. Longs exit when the close crosses down through the middle
// band, shorts when it crosses up. Params: [n, mult], default 20,2.
type ATRChannel struct{}

func (ATRChannel) Name() string { return "atr-ch" }

func (ATRChannel) Signals(bars []market.Bar, p Params) (Output, error) {
	n, err := p.Period(0, 20)
	if err != nil {
		return Output{}, err
	}
	mult := p.Float(1, 2)
	if mult <= 0 {
		return Output{}, fmt.Errorf("atr-ch: multiplier must be positive, got %v", mult)
	}

	xs := closes(bars)
	mid := indicators.Run(indicators.NewSMA(n), xs)
	atr := indicators.RunRange(indicators.NewATR(n), highs(bars), lows(bars), xs)

	upper := make([]float64, len(bars))
	lower := make([]float64, len(bars))
	for i := range bars {
		upper[i] = mid[i] + mult*atr[i]
		lower[i] = mid[i] - mult*atr[i]
	}

	l := newLegs(len(bars))
	for i := 1; i < len(bars); i++ {
		c, prev := xs[i], xs[i-1]
		if c > upper[i-1] {
			l.long[i] = sim.SignalLong
		}
		if c < mid[i] && prev >= mid[i-1] {
			l.long[i] = sim.SignalFlat
		}
		if c < lower[i-1] {
			l.short[i] = sim.SignalShort
		}
		if c > mid[i] && prev <= mid[i-1] {
			l.short[i] = sim.SignalFlat
		}
	}

	diag := sim.Diagnostics{}
	record(diag, bars, "middle_band", mid)
	record(diag, bars, "upper_band", upper)
	record(diag, bars, "lower_band", lower)

	return Output{Signals: l.merge(), Diagnostics: diag}, nil
}

func (ATRChannel) Candidates() []Params {
	var out []Params
	for _, n := range seq(10, 31, 5) {
		for _, m := range []float64{2, 2.5, 3} {
			out = append(out, Params{float64(n), m})
		}
	}
	return out
}
