package sim

import "fmt"

// DefaultPositionDelay holds a signal computed on a bar's close from the
// following bar, the same bar whose open the stop filter uses as entry.
const DefaultPositionDelay = 1

// ResolvePositions forward-fills set signals into a per-bar side after
// shifting them delay bars later. Bars before the first signal are flat.
func ResolvePositions(signals []Signal, delay int) ([]Side, error) {
	if delay < 0 {
		return nil, fmt.Errorf("%w: negative position delay %d", ErrInvalidConfig, delay)
	}

	pos := make([]Side, len(signals))
	cur := Flat
	for i := range pos {
		if j := i - delay; j >= 0 && signals[j].IsSet() {
			s := signals[j]
			if s < SignalShort || s > SignalLong {
				return nil, fmt.Errorf("%w: signal %d at bar %d", ErrInvalidConfig, s, j)
			}
			cur = Side(s)
		}
		pos[i] = cur
	}
	return pos, nil
}
