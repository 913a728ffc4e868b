package indicators

import "math"

// RangeIndicator is fed the high, low and close of one bar per update.
type RangeIndicator interface {
	Name() string
	Warmup() int
	Ready() bool
	Update(high, low, close float64)
	Float64() float64
	Reset()
}

// RunRange resets ind, feeds it the bar columns and returns the value after
// each update. The columns must have equal length.
func RunRange(ind RangeIndicator, highs, lows, closes []float64) []float64 {
	ind.Reset()
	out := make([]float64, len(closes))
	for i := range closes {
		ind.Update(highs[i], lows[i], closes[i])
		out[i] = ind.Float64()
	}
	return out
}

// trueRange is Wilder's true range against the previous close.
func trueRange(high, low, prevClose float64) float64 {
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}
