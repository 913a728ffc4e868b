package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTrades(t *testing.T) {
	t.Parallel()

	bars := wave(7)
	points := make([]EquityPoint, len(bars))
	cum := 1.0
	changes := []float64{0, 0.1, -0.2, 0.05, 0, -0.1, 0.02}
	sides := []Side{Flat, Long, Long, Long, Flat, Short, Short}
	for i := range points {
		cum *= 1 + changes[i]
		points[i] = EquityPoint{
			Time:       bars[i].Time,
			Position:   sides[i],
			Opened:     i == 1 || i == 5,
			Change:     changes[i],
			Cumulative: cum,
		}
	}

	trades, err := ExtractTrades(bars, points)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	long := trades[0]
	assert.Equal(t, 1, long.ID)
	assert.Equal(t, Long, long.Direction)
	assert.Equal(t, 3, long.Bars)
	assert.Equal(t, bars[1].Open, long.EntryPrice)
	assert.Equal(t, bars[3].Close, long.ExitPrice)
	assert.Equal(t, 2*time.Hour, long.Holding())
	assert.InDelta(t, 1.1*0.8*1.05-1, long.Return, 1e-12)
	assert.InDelta(t, 1.1*0.8, long.MinEquity, 1e-12)
	assert.InDelta(t, 1.1*0.8*1.05, long.EndEquity, 1e-12)
	assert.False(t, long.Won())

	short := trades[1]
	assert.Equal(t, 2, short.ID)
	assert.InDelta(t, 0.9*1.02-1, short.Return, 1e-12)
	assert.Equal(t, time.Hour, short.Holding())
}

func TestExtractTradesLengthMismatch(t *testing.T) {
	t.Parallel()

	_, err := ExtractTrades(wave(2), make([]EquityPoint, 3))
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestPnL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		contracts int64
		entry     float64
		price     float64
		dir       Side
		expected  float64
	}{
		{"long_profit", 100, 1.2, 1.25, Long, 5},
		{"long_loss", 100, 1.2, 1.1, Long, -10},
		{"short_profit", 100, 1.2, 1.1, Short, 10},
		{"short_loss", 100, 1.2, 1.25, Short, -5},
		{"zero_contracts", 0, 1.2, 2, Long, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, pnl(1, tt.contracts, tt.entry, tt.price, tt.dir), 1e-9)
		})
	}
}

func TestMarginRatio(t *testing.T) {
	t.Parallel()

	b := ohlc([2]float64{100, 102})[0]
	assert.Equal(t, 99.0, worstPrice(b, Long))
	assert.Equal(t, 103.0, worstPrice(b, Short))

	// 10x long from 100: a 10% drop wipes the margin
	assert.InDelta(t, 0.0, marginRatio(1000, 1, 100, 100, 90, Long), 1e-12)
	assert.InDelta(t, 900.0/9900, marginRatio(1000, 1, 100, 100, 99, Long), 1e-12)
	assert.InDelta(t, 900.0/10100, marginRatio(1000, 1, 100, 100, 101, Short), 1e-12)

	cfg := Config{MaintenanceMargin: 0.01, FeeRate: 0.001}
	assert.True(t, cfg.liquidated(0.0109))
	assert.False(t, cfg.liquidated(0.0112))
}

func TestDiagnostics(t *testing.T) {
	t.Parallel()

	d := Diagnostics{}
	d.Set(t0, "b", 2)
	d.Set(t0, "a", 1)
	d.Set(t0.Add(time.Hour), "c", 3)
	assert.Equal(t, []string{"a", "b", "c"}, d.Names())

	v, ok := d.Get(t0, "a")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	var none Diagnostics
	none.Set(t0, "x", 1)
	_, ok = none.Get(t0, "x")
	assert.False(t, ok)
}
