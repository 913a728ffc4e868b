// Package indicators provides streaming technical indicators over float
// series. Windows fill like a rolling mean with a minimum of one period: the
// value is defined from the first update and Ready reports a full window.
package indicators

// Indicator is fed one value per bar.
type Indicator interface {
	Name() string
	Warmup() int
	Ready() bool
	Update(x float64)
	Float64() float64
	Reset()
}

// Run resets ind, feeds it xs and returns the value after each update.
func Run(ind Indicator, xs []float64) []float64 {
	ind.Reset()
	out := make([]float64, len(xs))
	for i, x := range xs {
		ind.Update(x)
		out[i] = ind.Float64()
	}
	return out
}

// window is a fixed size ring of the most recent values.
type window struct {
	buf  []float64
	next int
	full bool
}

func newWindow(n int) window {
	return window{buf: make([]float64, n)}
}

// push stores x and returns the value it evicted, if any.
func (w *window) push(x float64) (old float64, evicted bool) {
	if w.full {
		old, evicted = w.buf[w.next], true
	}
	w.buf[w.next] = x
	w.next++
	if w.next == len(w.buf) {
		w.next = 0
		w.full = true
	}
	return old, evicted
}

func (w *window) len() int {
	if w.full {
		return len(w.buf)
	}
	return w.next
}

func (w *window) values() []float64 {
	return w.buf[:w.len()]
}

func (w *window) reset() {
	clear(w.buf)
	w.next = 0
	w.full = false
}
