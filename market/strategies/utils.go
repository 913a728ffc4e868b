package strategies

import (
	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/sim"
)

// legs holds the long and short signal columns of a strategy before they are
// merged.
type legs struct {
	long  []sim.Signal
	short []sim.Signal
}

func newLegs(n int) legs {
	return legs{long: sim.NewSignals(n), short: sim.NewSignals(n)}
}

// merge adds the two legs bar by bar (a bar with neither set stays unset) and
// drops signals that repeat the previous one.
func (l legs) merge() []sim.Signal {
	out := sim.NewSignals(len(l.long))
	last := sim.SignalNone
	for i := range out {
		a, b := l.long[i], l.short[i]
		if !a.IsSet() && !b.IsSet() {
			continue
		}
		var sum sim.Signal
		if a.IsSet() {
			sum += a
		}
		if b.IsSet() {
			sum += b
		}
		if sum == last {
			continue
		}
		out[i] = sum
		last = sum
	}
	return out
}

// crossedAbove reports a > b on bar i after a <= b on bar i-1.
func crossedAbove(a, b []float64, i int) bool {
	return i > 0 && a[i] > b[i] && a[i-1] <= b[i-1]
}

func crossedBelow(a, b []float64, i int) bool {
	return i > 0 && a[i] < b[i] && a[i-1] >= b[i-1]
}

// crossLegs opens long when fast crosses above slow and short when it
// crosses below, each closing the other leg.
func crossLegs(fast, slow []float64) legs {
	l := newLegs(len(fast))
	for i := range fast {
		switch {
		case crossedAbove(fast, slow, i):
			l.long[i] = sim.SignalLong
			l.short[i] = sim.SignalFlat
		case crossedBelow(fast, slow, i):
			l.long[i] = sim.SignalFlat
			l.short[i] = sim.SignalShort
		}
	}
	return l
}

func closes(bars []market.Bar) []float64 {
	xs := make([]float64, len(bars))
	for i, b := range bars {
		xs[i] = b.Close
	}
	return xs
}

func highs(bars []market.Bar) []float64 {
	xs := make([]float64, len(bars))
	for i, b := range bars {
		xs[i] = b.High
	}
	return xs
}

func lows(bars []market.Bar) []float64 {
	xs := make([]float64, len(bars))
	for i, b := range bars {
		xs[i] = b.Low
	}
	return xs
}

// record copies an indicator column into the diagnostics.
func record(d sim.Diagnostics, bars []market.Bar, name string, xs []float64) {
	for i, b := range bars {
		d.Set(b.Time, name, xs[i])
	}
}

// seq returns from, from+step, ... below to.
func seq(from, to, step int) []int {
	var out []int
	for v := from; v < to; v += step {
		out = append(out, v)
	}
	return out
}
