package indicators

import (
	"fmt"
	"math"
)

// RSI is the relative strength index over a simple rolling mean of gains and
// losses. The first update has no change and contributes zero to both.
// The value is NaN while both means are zero.
type RSI struct {
	n      int
	gains  *SMA
	losses *SMA
	prev   float64
	seen   int
	name   string
}

func NewRSI(period int) *RSI {
	if period <= 0 {
		panic("RSI period must be > 0")
	}
	return &RSI{
		n:      period,
		gains:  NewSMA(period),
		losses: NewSMA(period),
		name:   fmt.Sprintf("RSI(%d)", period),
	}
}

func (r *RSI) Name() string { return r.name }
func (r *RSI) Warmup() int  { return r.n + 1 }
func (r *RSI) Ready() bool  { return r.seen > r.n }

func (r *RSI) Update(x float64) {
	var d float64
	if r.seen > 0 {
		d = x - r.prev
	}
	r.prev = x
	r.seen++
	r.gains.Update(math.Max(d, 0))
	r.losses.Update(math.Max(-d, 0))
}

func (r *RSI) Float64() float64 {
	g, l := r.gains.Float64(), r.losses.Float64()
	switch {
	case l == 0 && g == 0:
		return math.NaN()
	case l == 0:
		return 100
	}
	return 100 - 100/(1+g/l)
}

func (r *RSI) Reset() {
	r.gains.Reset()
	r.losses.Reset()
	r.prev = 0
	r.seen = 0
}
