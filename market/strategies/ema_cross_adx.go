package strategies

import (
	"fmt"
	"math"

	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/market/indicators"
	"github.com/rustyeddy/perpbt/sim"
)

// EMACrossADX is EMACross gated by trend strength. A cross always closes the
// opposite leg; it opens its own leg only when ADX is ready and at or above
// the threshold and the directional index agrees (+DI above -DI for longs).
// Params: [fast, slow, adx period, threshold], default 12,26,14,20.
type EMACrossADX struct{}

func (EMACrossADX) Name() string { return "ema-cross-adx" }

func (EMACrossADX) Signals(bars []market.Bar, p Params) (Output, error) {
	fast, err := p.Period(0, 12)
	if err != nil {
		return Output{}, err
	}
	slow, err := p.Period(1, 26)
	if err != nil {
		return Output{}, err
	}
	n, err := p.Period(2, 14)
	if err != nil {
		return Output{}, err
	}
	threshold := p.Float(3, 20)
	if fast >= slow {
		return Output{}, fmt.Errorf("ema-cross-adx: fast period %d must be below slow period %d", fast, slow)
	}
	if threshold < 0 || threshold > 100 {
		return Output{}, fmt.Errorf("ema-cross-adx: threshold must be within [0, 100], got %v", threshold)
	}

	xs := closes(bars)
	f := indicators.Run(indicators.NewEMA(fast), xs)
	s := indicators.Run(indicators.NewEMA(slow), xs)

	adx := indicators.NewADX(n)
	strength := make([]float64, len(bars))
	plus := make([]float64, len(bars))
	minus := make([]float64, len(bars))
	for i, b := range bars {
		adx.Update(b.High, b.Low, b.Close)
		strength[i] = math.NaN()
		if adx.Ready() {
			strength[i] = adx.Float64()
		}
		plus[i], minus[i] = adx.PlusDI(), adx.MinusDI()
	}

	l := newLegs(len(bars))
	for i := range bars {
		// NaN compares false: no entries while ADX warms up
		trending := strength[i] >= threshold
		switch {
		case crossedAbove(f, s, i):
			l.short[i] = sim.SignalFlat
			if trending && plus[i] > minus[i] {
				l.long[i] = sim.SignalLong
			}
		case crossedBelow(f, s, i):
			l.long[i] = sim.SignalFlat
			if trending && minus[i] > plus[i] {
				l.short[i] = sim.SignalShort
			}
		}
	}

	diag := sim.Diagnostics{}
	record(diag, bars, "ema_fast", f)
	record(diag, bars, "ema_slow", s)
	record(diag, bars, "adx", strength)

	return Output{Signals: l.merge(), Diagnostics: diag}, nil
}

func (EMACrossADX) Candidates() []Params {
	var out []Params
	for _, fs := range [][2]float64{{5, 13}, {8, 17}, {12, 26}, {20, 50}} {
		for _, th := range []float64{20, 25, 30} {
			out = append(out, Params{fs[0], fs[1], 14, th})
		}
	}
	return out
}
