package sim

import (
	"errors"
	"sort"
	"time"
)

var (
	ErrEmptyInput     = errors.New("sim: empty input")
	ErrLengthMismatch = errors.New("sim: length mismatch")
	ErrInvalidConfig  = errors.New("sim: invalid config")
)

// Signal is the trading intent attached to a bar. SignalNone means no change
// was requested on that bar.
type Signal int8

const (
	SignalShort Signal = -1
	SignalFlat  Signal = 0
	SignalLong  Signal = 1
	SignalNone  Signal = 127
)

// IsSet reports whether the bar carries an explicit instruction.
func (s Signal) IsSet() bool { return s != SignalNone }

func (s Signal) String() string {
	switch s {
	case SignalShort:
		return "short"
	case SignalFlat:
		return "flat"
	case SignalLong:
		return "long"
	case SignalNone:
		return ""
	}
	return "invalid"
}

// NewSignals returns n bars with no instruction.
func NewSignals(n int) []Signal {
	s := make([]Signal, n)
	for i := range s {
		s[i] = SignalNone
	}
	return s
}

// Side is the directional exposure held on a bar.
type Side int8

const (
	Short Side = -1
	Flat  Side = 0
	Long  Side = 1
)

func (s Side) String() string {
	switch s {
	case Short:
		return "short"
	case Long:
		return "long"
	}
	return "flat"
}

// Diagnostics carries indicator values that are not part of the typed
// records, keyed by bar time then name.
type Diagnostics map[time.Time]map[string]float64

// Set records v under name for the bar at t. Setting on a nil map is a no-op.
func (d Diagnostics) Set(t time.Time, name string, v float64) {
	if d == nil {
		return
	}
	m, ok := d[t]
	if !ok {
		m = make(map[string]float64)
		d[t] = m
	}
	m[name] = v
}

// Get returns the value recorded for name at t.
func (d Diagnostics) Get(t time.Time, name string) (float64, bool) {
	v, ok := d[t][name]
	return v, ok
}

// Names lists every diagnostic name in sorted order.
func (d Diagnostics) Names() []string {
	seen := map[string]struct{}{}
	for _, m := range d {
		for k := range m {
			seen[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
