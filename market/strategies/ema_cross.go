package strategies

import (
	"fmt"

	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/market/indicators"
	"github.com/rustyeddy/perpbt/sim"
)

// EMACross trades the cross of a fast and a slow EMA of closes.
// Params: [fast, slow], default 12,26.
type EMACross struct{}

func (EMACross) Name() string { return "ema-cross" }

func (EMACross) Signals(bars []market.Bar, p Params) (Output, error) {
	fast, err := p.Period(0, 12)
	if err != nil {
		return Output{}, err
	}
	slow, err := p.Period(1, 26)
	if err != nil {
		return Output{}, err
	}
	if fast >= slow {
		return Output{}, fmt.Errorf("ema-cross: fast period %d must be below slow period %d", fast, slow)
	}

	xs := closes(bars)
	f := indicators.Run(indicators.NewEMA(fast), xs)
	s := indicators.Run(indicators.NewEMA(slow), xs)

	diag := sim.Diagnostics{}
	record(diag, bars, "ema_fast", f)
	record(diag, bars, "ema_slow", s)

	return Output{Signals: crossLegs(f, s).merge(), Diagnostics: diag}, nil
}

func (EMACross) Candidates() []Params {
	return []Params{{5, 13}, {8, 17}, {12, 26}, {20, 50}}
}
