package strategies

import (
	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/market/indicators"
	"github.com/rustyeddy/perpbt/sim"
)

// SMA is the double moving average cross: a period n average of closes
// against the period n average of that average. Params: [n], default 200.
type SMA struct{}

func (SMA) Name() string { return "sma" }

func (SMA) Signals(bars []market.Bar, p Params) (Output, error) {
	n, err := p.Period(0, 200)
	if err != nil {
		return Output{}, err
	}

	short := indicators.Run(indicators.NewSMA(n), closes(bars))
	long := indicators.Run(indicators.NewSMA(n), short)

	diag := sim.Diagnostics{}
	record(diag, bars, "ma_short", short)
	record(diag, bars, "ma_long", long)

	return Output{Signals: crossLegs(short, long).merge(), Diagnostics: diag}, nil
}

func (SMA) Candidates() []Params {
	var out []Params
	for _, n := range seq(2, 500, 2) {
		out = append(out, Params{float64(n)})
	}
	return out
}
