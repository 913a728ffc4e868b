package indicators

import "fmt"

// ATR is the average true range. The first bar has no previous close and
// uses high-low. Until period bars are seen the value is the mean of the
// true ranges so far; after that it is Wilder smoothed.
type ATR struct {
	n         int
	seen      int
	prevClose float64
	sum       float64
	value     float64
	name      string
}

func NewATR(period int) *ATR {
	if period <= 0 {
		panic("ATR period must be > 0")
	}
	return &ATR{n: period, name: fmt.Sprintf("ATR(%d)", period)}
}

func (a *ATR) Name() string     { return a.name }
func (a *ATR) Warmup() int      { return a.n }
func (a *ATR) Ready() bool      { return a.seen >= a.n }
func (a *ATR) Float64() float64 { return a.value }

func (a *ATR) Reset() {
	*a = ATR{n: a.n, name: a.name}
}

func (a *ATR) Update(high, low, close float64) {
	tr := high - low
	if a.seen > 0 {
		tr = trueRange(high, low, a.prevClose)
	}
	a.prevClose = close
	a.seen++

	if a.seen <= a.n {
		a.sum += tr
		a.value = a.sum / float64(a.seen)
		return
	}
	nf := float64(a.n)
	a.value = (a.value*(nf-1) + tr) / nf
}
