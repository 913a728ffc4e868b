package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedTrend(ind RangeIndicator, n int, start, step, halfRange float64) {
	p := start
	for i := 0; i < n; i++ {
		c := p + step
		ind.Update(max(p, c)+halfRange, min(p, c)-halfRange, c)
		p = c
	}
}

func TestATR(t *testing.T) {
	atr := NewATR(2)
	got := RunRange(atr,
		[]float64{11, 12, 14, 13},
		[]float64{9, 10, 11, 12},
		[]float64{10, 11, 13, 12},
	)

	// first bar is high-low, then Wilder smoothing once the window is full
	require.InDeltaSlice(t, []float64{2, 2, 2.5, 1.75}, got, 1e-12)
	assert.True(t, atr.Ready())
	assert.Equal(t, "ATR(2)", atr.Name())

	atr.Reset()
	assert.False(t, atr.Ready())
	assert.Zero(t, atr.Float64())

	require.Panics(t, func() { NewATR(0) })
}

func TestADX_WarmupAndReady(t *testing.T) {
	n := 14
	adx := NewADX(n)

	require.False(t, adx.Ready())
	require.Equal(t, 2*n, adx.Warmup())

	feedTrend(adx, 2*n-1, 100, 1, 0.5)
	require.False(t, adx.Ready())
	require.Zero(t, adx.Float64())

	feedTrend(adx, 1, 130, 1, 0.5)
	require.True(t, adx.Ready())
	require.GreaterOrEqual(t, adx.Float64(), 0.0)
	require.LessOrEqual(t, adx.Float64(), 100.0)
}

func TestADX_FlatMarketGoesToZero(t *testing.T) {
	adx := NewADX(5)
	for i := 0; i < 30; i++ {
		adx.Update(100, 100, 100)
	}

	require.True(t, adx.Ready())
	assert.Zero(t, adx.PlusDI())
	assert.Zero(t, adx.MinusDI())
	assert.Zero(t, adx.DX())
	assert.Zero(t, adx.Float64())
}

func TestADX_Direction(t *testing.T) {
	up := NewADX(14)
	feedTrend(up, 60, 100, 1, 0.25)
	require.True(t, up.Ready())
	assert.Greater(t, up.PlusDI(), up.MinusDI())
	assert.Greater(t, up.Float64(), 50.0)

	down := NewADX(14)
	feedTrend(down, 60, 200, -1, 0.25)
	require.True(t, down.Ready())
	assert.Greater(t, down.MinusDI(), down.PlusDI())
	assert.Greater(t, down.Float64(), 50.0)
}

func TestADX_Reset(t *testing.T) {
	adx := NewADX(3)
	feedTrend(adx, 20, 100, 1, 0.5)
	require.True(t, adx.Ready())

	adx.Reset()
	assert.False(t, adx.Ready())
	assert.Zero(t, adx.Float64())
	assert.Equal(t, "ADX(3)", adx.Name())

	var _ RangeIndicator = adx
	var _ RangeIndicator = NewATR(3)
}
