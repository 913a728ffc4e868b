package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopLossForcesFlat(t *testing.T) {
	t.Parallel()

	bars := ohlc(
		[2]float64{100, 100},
		[2]float64{100, 99},
		[2]float64{99, 97},
		[2]float64{97, 94}, // 94 <= 95 stop
		[2]float64{94, 95},
		[2]float64{95, 96},
	)
	signals := NewSignals(len(bars))
	signals[0] = SignalLong

	diag := Diagnostics{}
	out, err := StopLoss{Pct: 0.05, Leverage: 1}.Apply(bars, signals, diag)
	require.NoError(t, err)

	assert.Equal(t, SignalFlat, out[3])
	for _, i := range []int{1, 2, 4, 5} {
		assert.Equal(t, SignalNone, out[i], "bar %d", i)
	}
	// input untouched
	assert.Equal(t, SignalNone, signals[3])

	stop, ok := diag.Get(bars[0].Time, "stop_price")
	require.True(t, ok)
	assert.InDelta(t, 95.0, stop, 1e-9)
	_, ok = diag.Get(bars[4].Time, "stop_price")
	assert.False(t, ok)
}

func TestStopLossShortAndLeverage(t *testing.T) {
	t.Parallel()

	// entry 100, 10% of margin at 2x leverage -> stop at 105
	bars := ohlc(
		[2]float64{100, 100},
		[2]float64{100, 103},
		[2]float64{103, 105},
		[2]float64{105, 104},
	)
	signals := NewSignals(len(bars))
	signals[0] = SignalShort

	out, err := StopLoss{Pct: 0.1, Leverage: 2}.Apply(bars, signals, nil)
	require.NoError(t, err)
	assert.Equal(t, []Signal{SignalShort, SignalNone, SignalFlat, SignalNone}, out)
}

func TestStopLossKeepsExplicitSignal(t *testing.T) {
	t.Parallel()

	bars := ohlc(
		[2]float64{100, 100},
		[2]float64{100, 90},
		[2]float64{90, 91},
	)
	signals := NewSignals(len(bars))
	signals[0] = SignalLong
	signals[1] = SignalShort // reversal on the breaching bar

	out, err := StopLoss{Pct: 0.05, Leverage: 1}.Apply(bars, signals, nil)
	require.NoError(t, err)
	assert.Equal(t, SignalShort, out[1])
	assert.Equal(t, SignalNone, out[2])
}

func TestStopLossLastBarEntryUsesClose(t *testing.T) {
	t.Parallel()

	bars := ohlc([2]float64{100, 100}, [2]float64{100, 120})
	signals := []Signal{SignalNone, SignalLong}

	diag := Diagnostics{}
	_, err := StopLoss{Pct: 0.5, Leverage: 1}.Apply(bars, signals, diag)
	require.NoError(t, err)

	stop, ok := diag.Get(bars[1].Time, "stop_price")
	require.True(t, ok)
	assert.InDelta(t, 60.0, stop, 1e-9)
}

func TestStopLossDegenerateClosesImmediately(t *testing.T) {
	t.Parallel()

	bars := wave(10)
	signals := NewSignals(len(bars))
	signals[0] = SignalShort

	// a stop practically at the entry price trips on the first adverse close
	out, err := StopLoss{Pct: 1e-9, Leverage: 1}.Apply(bars, signals, nil)
	require.NoError(t, err)
	assert.Equal(t, SignalShort, out[0])
	assert.Equal(t, SignalFlat, out[1])
}

func TestStopLossIdempotent(t *testing.T) {
	t.Parallel()

	bars := wave(300)
	signals := rotating(len(bars), 17)

	for _, sl := range []StopLoss{
		{Pct: 0.02, Leverage: 1},
		{Pct: 0.05, Leverage: 3},
		{Pct: 0.2, Leverage: 10},
	} {
		once, err := sl.Apply(bars, signals, nil)
		require.NoError(t, err)
		twice, err := sl.Apply(bars, once, nil)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "%+v", sl)
	}
}

func TestStopLossErrors(t *testing.T) {
	t.Parallel()

	bars := wave(3)

	_, err := StopLoss{Pct: 0.1, Leverage: 1}.Apply(bars, NewSignals(2), nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = StopLoss{Pct: 0.1, Leverage: 0}.Apply(bars, NewSignals(3), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	out, err := StopLoss{Pct: 0, Leverage: 0}.Apply(bars, NewSignals(3), nil)
	require.NoError(t, err, "disabled filter ignores leverage")
	assert.Equal(t, NewSignals(3), out)
}
