package sim

import (
	"fmt"
	"math"

	"github.com/rustyeddy/perpbt/market"
)

// StopLoss flattens an open position once the close crosses
// entry*(1 - dir*Pct/Leverage). Pct is a fraction of margin, so the price
// distance shrinks as leverage grows.
type StopLoss struct {
	Pct      float64
	Leverage float64
}

// Apply returns a filtered copy of signals. The state machine walks the bars
// once, in order: an explicit signal that changes direction moves to the new
// state with the entry taken at the next bar's open (the bar's own close on
// the last bar). While a position is held and the close is at or beyond the
// stop, a bar without an instruction is forced to SignalFlat.
//
// Stop levels are recorded in diag under "stop_price" when diag is non-nil.
func (sl StopLoss) Apply(bars []market.Bar, signals []Signal, diag Diagnostics) ([]Signal, error) {
	if len(bars) != len(signals) {
		return nil, fmt.Errorf("%w: %d bars, %d signals", ErrLengthMismatch, len(bars), len(signals))
	}
	out := make([]Signal, len(signals))
	copy(out, signals)

	if sl.Pct <= 0 || math.IsNaN(sl.Pct) {
		return out, nil
	}
	if !(sl.Leverage > 0) || math.IsInf(sl.Leverage, 0) {
		return nil, fmt.Errorf("%w: stop loss leverage %v", ErrInvalidConfig, sl.Leverage)
	}

	state := Flat
	var entry float64
	for i := range bars {
		if s := out[i]; s.IsSet() && (state == Flat || Side(s) != state) {
			state = Side(s)
			switch {
			case state == Flat:
				entry = 0
			case i+1 < len(bars):
				entry = bars[i+1].Open
			default:
				entry = bars[i].Close
			}
		}
		if state == Flat {
			continue
		}

		stop := sl.Price(entry, state)
		diag.Set(bars[i].Time, "stop_price", stop)
		if hitStop(state, bars[i].Close, stop) && !out[i].IsSet() {
			out[i] = SignalFlat
			state = Flat
			entry = 0
		}
	}
	return out, nil
}

// Price is the stop level for a position entered at entry.
func (sl StopLoss) Price(entry float64, dir Side) float64 {
	return entry * (1 - float64(dir)*sl.Pct/sl.Leverage)
}

func hitStop(dir Side, price, stop float64) bool {
	return float64(dir)*(price-stop) <= 0
}
