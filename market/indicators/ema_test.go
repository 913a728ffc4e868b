package indicators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEMA_WarmupAndReady(t *testing.T) {
	ema := NewEMA(3)

	require.False(t, ema.Ready())
	require.Equal(t, 3, ema.Warmup())

	ema.Update(1.0)
	require.False(t, ema.Ready())

	ema.Update(2.0)
	require.False(t, ema.Ready())

	ema.Update(3.0)
	require.True(t, ema.Ready())
}

func TestEMA_KnownSequence(t *testing.T) {
	ema := NewEMA(3)

	// alpha = 2/(3+1) = 0.5
	// 10 -> 10.5 -> 11.25 -> 12.125
	got := Run(ema, []float64{10, 11, 12, 13})

	require.True(t, ema.Ready())
	require.InDeltaSlice(t, []float64{10, 10.5, 11.25, 12.125}, got, 1e-9)
}

func TestEMA_Reset(t *testing.T) {
	ema := NewEMA(3)

	ema.Update(10)
	ema.Update(11)
	require.False(t, ema.Ready())

	ema.Reset()

	require.False(t, ema.Ready())
	require.Equal(t, 0.0, ema.Float64())

	ema.Update(20)
	require.Equal(t, 20.0, ema.Float64())
}

func TestEMA_PanicsOnBadPeriod(t *testing.T) {
	require.Panics(t, func() { NewEMA(0) })
}
