// Package strategies turns bar series into signal series. Strategies are
// pure: the same bars and params always yield the same output.
package strategies

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/sim"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

// Params is a strategy parameter vector, e.g. [fast, slow].
type Params []float64

// ParseParams reads "12,26" or "12 26".
func ParseParams(s string) (Params, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == ';' })
	p := make(Params, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("bad param %q: %w", f, err)
		}
		p = append(p, v)
	}
	return p, nil
}

func (p Params) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Float returns p[i], or def when p is shorter.
func (p Params) Float(i int, def float64) float64 {
	if i < len(p) {
		return p[i]
	}
	return def
}

// Period returns p[i] as a window length, or def when p is shorter.
func (p Params) Period(i int, def int) (int, error) {
	v := p.Float(i, float64(def))
	n := int(v)
	if float64(n) != v || n <= 0 {
		return 0, fmt.Errorf("param %d: period must be a positive integer, got %v", i, v)
	}
	return n, nil
}

// Output is what a strategy produces for one series.
type Output struct {
	Signals     []sim.Signal
	Diagnostics sim.Diagnostics
}

type Strategy interface {
	Name() string
	// Signals computes one signal per bar.
	Signals(bars []market.Bar, p Params) (Output, error)
	// Candidates enumerates the parameter grid swept by default.
	Candidates() []Params
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Strategy)
)

func init() {
	for _, s := range []Strategy{Noop{}, SMA{}, EMACross{}, EMACrossADX{}, Donchian{}, ATRChannel{}, RSI{}} {
		Register(s)
	}
}

// Register adds s under its name, replacing any previous entry.
func Register(s Strategy) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(s.Name())] = s
}

func Get(name string) (Strategy, error) {
	mu.RLock()
	defer mu.RUnlock()
	s, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownStrategy, name, strings.Join(namesLocked(), ", "))
	}
	return s, nil
}

// Names lists registered strategies in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
