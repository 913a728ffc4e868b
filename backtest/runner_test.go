package backtest

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/market/strategies"
	"github.com/rustyeddy/perpbt/sim"
)

func TestRunner_Run_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	series := waveSeries("BTC-USDT", 20)

	t.Run("missing strategy", func(t *testing.T) {
		t.Parallel()
		_, err := Runner{Settings: DefaultSettings()}.Run(ctx, series, nil)
		assert.Error(t, err)
	})

	t.Run("missing series", func(t *testing.T) {
		t.Parallel()
		_, err := Runner{Strategy: strategies.Noop{}, Settings: DefaultSettings()}.Run(ctx, nil, nil)
		assert.Error(t, err)
	})

	t.Run("malformed series fails before signals", func(t *testing.T) {
		t.Parallel()
		bad := waveSeries("BTC-USDT", 5)
		bad.Bars[3].Time = bad.Bars[1].Time
		strat := &fixed{name: "fixed", signals: longAt(0)}

		_, err := Runner{Strategy: strat, Settings: DefaultSettings()}.Run(ctx, bad, nil)
		assert.ErrorIs(t, err, market.ErrNotMonotonic)
		assert.Zero(t, strat.calls)
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()
		s := DefaultSettings()
		s.Sim.Leverage = 0
		_, err := Runner{Strategy: strategies.Noop{}, Settings: s}.Run(ctx, series, nil)
		assert.ErrorIs(t, err, sim.ErrInvalidConfig)
	})

	t.Run("short signal column", func(t *testing.T) {
		t.Parallel()
		strat := &fixed{name: "short", signals: func(n int) []sim.Signal { return sim.NewSignals(n - 1) }}
		_, err := Runner{Strategy: strat, Settings: DefaultSettings()}.Run(ctx, series, nil)
		assert.ErrorIs(t, err, sim.ErrLengthMismatch)
	})

	t.Run("cancelled", func(t *testing.T) {
		t.Parallel()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := Runner{Strategy: strategies.Noop{}, Settings: DefaultSettings()}.Run(cctx, series, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRunnerRun(t *testing.T) {
	t.Parallel()

	series := waveSeries("ETH-USDT", 48)
	res, err := Runner{
		Strategy: &fixed{name: "fixed", signals: longAt(0)},
		Settings: DefaultSettings(),
	}.Run(context.Background(), series, strategies.Params{1})
	require.NoError(t, err)

	assert.Len(t, res.RunID, 26)
	assert.Equal(t, "ETH-USDT", res.Symbol)
	assert.Equal(t, "fixed", res.Strategy)
	assert.Equal(t, time.Hour, res.Timeframe)
	require.Len(t, res.Rows, 48)
	require.Len(t, res.Trades, 1)

	// held from the bar after the signal
	assert.Equal(t, sim.Flat, res.Rows[0].Position)
	assert.Equal(t, sim.SignalLong, res.Rows[0].Signal)
	assert.Equal(t, sim.Long, res.Rows[1].Position)
	assert.Equal(t, series.Bars[1].Time, res.Trades[0].Start)
	assert.Equal(t, series.Bars[47].Time, res.Trades[0].End)

	assert.Equal(t, 1, res.Report.Trades)
	assert.Equal(t, res.Rows[47].Cumulative, res.Report.FinalEquity)
	for _, row := range res.Rows {
		assert.LessOrEqual(t, row.Drawdown, 0.0)
	}
}

func TestRunnerStopLossAndWindow(t *testing.T) {
	t.Parallel()

	series := waveSeries("SOL-USDT", 200)
	settings := DefaultSettings()
	settings.StopLossPct = 0.02
	settings.From = series.Bars[50].Time
	settings.To = series.Bars[149].Time

	res, err := Runner{Strategy: strategies.SMA{}, Settings: settings}.Run(context.Background(), series, strategies.Params{10})
	require.NoError(t, err)

	require.Len(t, res.Rows, 100)
	assert.Equal(t, settings.From, res.Rows[0].Time)
	assert.Equal(t, settings.To, res.Rows[99].Time)
	assert.Equal(t, settings.From, res.Report.Start)

	_, ok := res.Diagnostics.Get(series.Bars[0].Time, "ma_short")
	assert.True(t, ok, "diagnostics cover the full series")

	settings.From = series.Bars[199].Time.Add(time.Hour)
	settings.To = time.Time{}
	_, err = Runner{Strategy: strategies.SMA{}, Settings: settings}.Run(context.Background(), series, strategies.Params{10})
	assert.ErrorIs(t, err, ErrEmptyWindow)
}

func TestBuiltinStrategiesEndToEnd(t *testing.T) {
	t.Parallel()

	series := waveSeries("BTC-USDT", 600)
	for _, name := range strategies.Names() {
		strat, err := strategies.Get(name)
		require.NoError(t, err)

		for _, lev := range []float64{1, 5, 50} {
			s := DefaultSettings()
			s.Sim.Leverage = lev
			s.StopLossPct = 0.1

			res, err := Runner{Strategy: strat, Settings: s}.Run(context.Background(), series, strat.Candidates()[0])
			require.NoError(t, err, "%s lev %v", name, lev)

			r := res.Report
			assert.GreaterOrEqual(t, r.MaxDrawdown, -1.0)
			assert.LessOrEqual(t, r.MaxDrawdown, 0.0)
			assert.Equal(t, sim.Opens(res.Points), r.Trades, "%s lev %v", name, lev)
			assert.GreaterOrEqual(t, r.FinalEquity, 0.0)
		}
	}
}

func TestPrintResult(t *testing.T) {
	t.Parallel()

	series := waveSeries("BTC-USDT", 100)
	res, err := Runner{Strategy: strategies.EMACross{}, Settings: DefaultSettings()}.Run(context.Background(), series, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	PrintResult(&buf, res)
	out := buf.String()
	assert.Contains(t, out, "Run ID:        "+res.RunID)
	assert.Contains(t, out, "Timeframe:     1H")
	assert.Contains(t, out, "Monthly Returns")

	buf.Reset()
	PrintRanking(&buf, []*Result{res, res}, 1)
	assert.Contains(t, buf.String(), "ema-cross")
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}
