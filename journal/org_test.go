package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteOrg(t *testing.T) {
	t.Parallel()

	run, trades, _ := FromResult(sampleResult("01HRUN"))
	run.Notes = []string{"trend held"}
	run.NextActions = []string{"try 4H bars"}

	var b strings.Builder
	require.NoError(t, WriteOrg(&b, run, trades))
	out := b.String()

	assert.Contains(t, out, "* BACKTEST: sma BTC-USDT 1H")
	assert.Contains(t, out, ":RUN_ID:      01HRUN")
	assert.Contains(t, out, ":PARAMS:      20")
	assert.Contains(t, out, ":START_DATE:  2024-04-10")
	assert.Contains(t, out, ":END_BAL:     10120.00")
	assert.Contains(t, out, ":MAX_DD_PCT:  -0.78")
	assert.Contains(t, out, ":CREATED:     [2024-04-12 Fri 00:00]")
	assert.Contains(t, out, "| Stop loss %     | 5.00 |")
	assert.Contains(t, out, "| long | 2024-04-10 01:00 | 2024-04-10 03:00 | 100.5000 | 102.0000 | 1.20 |")
	assert.Contains(t, out, "** Observations\n- trend held")
	assert.Contains(t, out, "- [ ] try 4H bars")
	assert.Contains(t, out, "(no losses)")
}

func TestWriteOrgWithoutTrades(t *testing.T) {
	t.Parallel()

	run, _, _ := FromResult(sampleResult("R1"))
	run.Params = ""

	var b strings.Builder
	require.NoError(t, WriteOrg(&b, run, nil))
	out := b.String()

	assert.Contains(t, out, ":PARAMS:      (default)")
	assert.NotContains(t, out, "** Trades")
	assert.NotContains(t, out, "** Observations")
}

func TestWriteOrgFile(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "org")
	run, trades, _ := FromResult(sampleResult("R1"))

	path, err := WriteOrgFile(dir, run, trades)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "R1.org"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), ":RUN_ID:      R1")
}

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	_, trades, _ := FromResult(sampleResult("01HRUN"))
	result := FormatTradeOrg(trades[0])

	assert.Contains(t, result, "** Trade: BTC-USDT long (0001)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":TRADE_ID: 01HRUN-0001")
	assert.Contains(t, result, ":RUN_ID: 01HRUN")
	assert.Contains(t, result, ":CONTRACTS: 99")
	assert.Contains(t, result, ":ENTRY_PRICE: 100.50000")
	assert.Contains(t, result, ":OPEN_TIME: 2024-04-10T01:00:00Z")
	assert.Contains(t, result, ":RETURN_PCT: 1.20")
	assert.Contains(t, result, ":LIQUIDATED: false")
	assert.Contains(t, result, ":END:")
	assert.Contains(t, result, "*** Thesis")
	assert.Contains(t, result, "*** Review")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", FormatTradesOrg(nil))

	a := TradeRecord{TradeID: "a", Symbol: "X", Direction: -1}
	b := TradeRecord{TradeID: "b", Symbol: "Y"}
	out := FormatTradesOrg([]TradeRecord{a, b})
	assert.Equal(t, 2, strings.Count(out, "** Trade:"))
	assert.Contains(t, out, "** Trade: X short (a)")
	assert.Contains(t, out, "** Trade: Y flat (b)")
	assert.Contains(t, out, "\n\n\n** Trade: Y")
}

func TestShortID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0042", shortID("01HXYZ-0042"))
	assert.Equal(t, "short", shortID("short"))
	assert.Equal(t, "abcdefgh", shortID("abcdefghijk"))
	assert.Equal(t, "abcdefgh", shortID("abcdefghijk-"))
}

func TestPrintRunsAndTrades(t *testing.T) {
	t.Parallel()

	run, trades, _ := FromResult(sampleResult("R1"))

	var b strings.Builder
	PrintRuns(&b, []BacktestRun{run})
	assert.Contains(t, b.String(), "CALMAR")
	assert.Contains(t, b.String(), "R1")
	assert.Contains(t, b.String(), "1.0120")

	b.Reset()
	PrintTrades(&b, trades)
	assert.Contains(t, b.String(), "long")
	assert.Contains(t, b.String(), "1.20%")
}
