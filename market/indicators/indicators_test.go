package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	sma := NewSMA(3)
	got := Run(sma, []float64{1, 2, 3, 4, 5, 6})

	// partial windows average what they have
	require.InDeltaSlice(t, []float64{1, 1.5, 2, 3, 4, 5}, got, 1e-12)
	assert.True(t, sma.Ready())
	assert.Equal(t, "SMA(3)", sma.Name())

	sma.Reset()
	assert.False(t, sma.Ready())
	assert.Zero(t, sma.Float64())
}

func TestRSI(t *testing.T) {
	rsi := NewRSI(2)

	got := Run(rsi, []float64{10, 10, 11, 12, 11, 10})
	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.Equal(t, 100.0, got[2])
	assert.Equal(t, 100.0, got[3])
	// gains (1, 0) losses (0, 1)
	assert.InDelta(t, 50.0, got[4], 1e-12)
	assert.InDelta(t, 0.0, got[5], 1e-12)
	assert.True(t, rsi.Ready())
	assert.Equal(t, 3, rsi.Warmup())
}

func TestRSIRange(t *testing.T) {
	xs := make([]float64, 200)
	for i := range xs {
		xs[i] = 100 + 10*math.Sin(float64(i)/5) + float64(i%7)
	}
	for i, v := range Run(NewRSI(14), xs) {
		if math.IsNaN(v) {
			continue
		}
		require.GreaterOrEqual(t, v, 0.0, "bar %d", i)
		require.LessOrEqual(t, v, 100.0, "bar %d", i)
	}
}

func TestHighestLowest(t *testing.T) {
	xs := []float64{3, 1, 4, 1, 5, 9, 2, 6}

	hi := NewHighest(3)
	lo := NewLowest(3)
	assert.Equal(t, []float64{3, 3, 4, 4, 5, 9, 9, 9}, Run(hi, xs))
	assert.Equal(t, []float64{3, 1, 1, 1, 1, 1, 2, 2}, Run(lo, xs))
	assert.True(t, hi.Ready())
	assert.Equal(t, "MIN(3)", lo.Name())

	var _ Indicator = hi
	var _ Indicator = lo
}
