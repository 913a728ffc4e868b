package strategies

import (
	"fmt"

	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/market/indicators"
	"github.com/rustyeddy/perpbt/sim"
)

// RSI buys the re-cross up out of the oversold zone and sells the re-cross
// down out of the overbought zone; longs exit at 50 or above, shorts at 50 or
// below. Params: [period, oversold, overbought], default 14,30,70.
type RSI struct{}

func (RSI) Name() string { return "rsi" }

func (RSI) Signals(bars []market.Bar, p Params) (Output, error) {
	n, err := p.Period(0, 14)
	if err != nil {
		return Output{}, err
	}
	oversold, overbought := p.Float(1, 30), p.Float(2, 70)
	if !(0 <= oversold && oversold < overbought && overbought <= 100) {
		return Output{}, fmt.Errorf("rsi: need 0 <= oversold < overbought <= 100, got %v/%v", oversold, overbought)
	}

	rsi := indicators.Run(indicators.NewRSI(n), closes(bars))

	// NaN compares false, so undefined bars never signal
	l := newLegs(len(bars))
	for i := range bars {
		r := rsi[i]
		if i > 0 && r > oversold && rsi[i-1] <= oversold {
			l.long[i] = sim.SignalLong
		}
		if r >= 50 || r >= overbought {
			l.long[i] = sim.SignalFlat
		}
		if i > 0 && r < overbought && rsi[i-1] >= overbought {
			l.short[i] = sim.SignalShort
		}
		if r <= 50 || r <= oversold {
			l.short[i] = sim.SignalFlat
		}
	}

	diag := sim.Diagnostics{}
	record(diag, bars, "rsi", rsi)

	return Output{Signals: l.merge(), Diagnostics: diag}, nil
}

func (RSI) Candidates() []Params {
	var out []Params
	for _, n := range []float64{7, 14, 21, 28} {
		for _, os := range []float64{20, 25, 30, 35} {
			for _, ob := range []float64{65, 70, 75, 80} {
				out = append(out, Params{n, os, ob})
			}
		}
	}
	return out
}
