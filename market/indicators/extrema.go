package indicators

import (
	"fmt"
	"math"
)

// Highest tracks the maximum of the last period values.
type Highest struct{ extreme }

// Lowest tracks the minimum of the last period values.
type Lowest struct{ extreme }

func NewHighest(period int) *Highest {
	return &Highest{newExtreme(period, fmt.Sprintf("MAX(%d)", period), math.Max)}
}

func NewLowest(period int) *Lowest {
	return &Lowest{newExtreme(period, fmt.Sprintf("MIN(%d)", period), math.Min)}
}

type extreme struct {
	n    int
	w    window
	pick func(a, b float64) float64
	name string
}

func newExtreme(period int, name string, pick func(a, b float64) float64) extreme {
	if period <= 0 {
		panic("window period must be > 0")
	}
	return extreme{n: period, w: newWindow(period), pick: pick, name: name}
}

func (e *extreme) Name() string     { return e.name }
func (e *extreme) Warmup() int      { return e.n }
func (e *extreme) Ready() bool      { return e.w.full }
func (e *extreme) Update(x float64) { e.w.push(x) }
func (e *extreme) Reset()           { e.w.reset() }

func (e *extreme) Float64() float64 {
	vals := e.w.values()
	if len(vals) == 0 {
		return 0
	}
	v := vals[0]
	for _, x := range vals[1:] {
		v = e.pick(v, x)
	}
	return v
}
