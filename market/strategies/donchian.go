package strategies

import (
	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/market/indicators"
	"github.com/rustyeddy/perpbt/sim"
)

// Donchian is a channel breakout. A close above the previous bar's n period
// high goes long, a close below the previous n period low goes short. Each
// leg exits when the close falls back inside the channel as it stood two bars
// earlier. Params: [n], default 20.
type Donchian struct{}

func (Donchian) Name() string { return "donchian" }

func (Donchian) Signals(bars []market.Bar, p Params) (Output, error) {
	n, err := p.Period(0, 20)
	if err != nil {
		return Output{}, err
	}

	hh := indicators.Run(indicators.NewHighest(n), highs(bars))
	ll := indicators.Run(indicators.NewLowest(n), lows(bars))

	l := newLegs(len(bars))
	for i, b := range bars {
		if i >= 1 {
			if b.Close > hh[i-1] {
				l.long[i] = sim.SignalLong
			}
			if b.Close < ll[i-1] {
				l.short[i] = sim.SignalShort
			}
		}
		if i >= 2 {
			if b.Close < hh[i-2] {
				l.long[i] = sim.SignalFlat
			}
			if b.Close > ll[i-2] {
				l.short[i] = sim.SignalFlat
			}
		}
	}

	diag := sim.Diagnostics{}
	record(diag, bars, "highest_high", hh)
	record(diag, bars, "lowest_low", ll)

	return Output{Signals: l.merge(), Diagnostics: diag}, nil
}

func (Donchian) Candidates() []Params {
	return []Params{{10}, {20}, {30}, {50}, {75}, {100}}
}
