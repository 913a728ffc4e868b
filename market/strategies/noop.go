package strategies

import (
	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/sim"
)

// Noop stays flat on every bar.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Signals(bars []market.Bar, _ Params) (Output, error) {
	return Output{Signals: make([]sim.Signal, len(bars))}, nil
}

func (Noop) Candidates() []Params { return []Params{nil} }
