package journal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

// OrgReport is the data behind the org-mode run report.
type OrgReport struct {
	Run    BacktestRun
	Trades []TradeRecord
}

var orgFuncs = template.FuncMap{
	"pct": func(x float64) string { return fmt.Sprintf("%.2f", x*100) },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"side": sideName,
}

func sideName(d int) string {
	switch {
	case d > 0:
		return "long"
	case d < 0:
		return "short"
	}
	return "flat"
}

var orgTemplate = template.Must(template.New("run").Funcs(orgFuncs).Parse(RunOrgTemplate))

// WriteOrg renders the run report.
func WriteOrg(w io.Writer, run BacktestRun, trades []TradeRecord) error {
	return orgTemplate.Execute(w, OrgReport{Run: run, Trades: trades})
}

// WriteOrgFile renders the report into dir as <run_id>.org and returns
// the path.
func WriteOrgFile(dir string, run BacktestRun, trades []TradeRecord) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, run.RunID+".org")

	var b strings.Builder
	if err := WriteOrg(&b, run, trades); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", err
	}
	return path, nil
}

const RunOrgTemplate = `
* BACKTEST: {{.Run.Strategy}} {{.Run.Symbol}} {{if .Run.Timeframe}}{{.Run.Timeframe}}{{else}}(timeframe?){{end}}
:PROPERTIES:
:RUN_ID:      {{.Run.RunID}}
:STRATEGY:    {{.Run.Strategy}}
:PARAMS:      {{if .Run.Params}}{{.Run.Params}}{{else}}(default){{end}}
:TIMEFRAME:   {{.Run.Timeframe}}
:SYMBOL:      {{.Run.Symbol}}
:START_DATE:  {{.Run.Start.Format "2006-01-02"}}
:END_DATE:    {{.Run.End.Format "2006-01-02"}}
:START_BAL:   {{printf "%.2f" .Run.InitialCash}}
:END_BAL:     {{printf "%.2f" .Run.EndBalance}}
:EQUITY:      {{printf "%.4f" .Run.FinalEquity}}
:ANNUAL_PCT:  {{pct .Run.AnnualReturn}}
:MAX_DD_PCT:  {{pct .Run.MaxDrawdown}}
:CALMAR:      {{printf "%.2f" .Run.Calmar}}
:TRADES:      {{.Run.Trades}}
:WINS:        {{.Run.Wins}}
:LOSSES:      {{.Run.Losses}}
:LIQUIDATED:  {{.Run.Liquidations}}
:CREATED:     [{{(orTime .Run.Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Settings
| Parameter       | Value |
|-----------------+-------|
| Leverage        | {{printf "%.2f" .Run.Leverage}} |
| Fee rate %      | {{pct .Run.FeeRate}} |
| Slippage %      | {{pct .Run.Slippage}} |
| Stop loss %     | {{pct .Run.StopLossPct}} |
| Position delay  | {{.Run.PositionDelay}} |

** Performance Summary
- Final equity:     *{{printf "%.4f" .Run.FinalEquity}}*
- Annual return:    *{{pct .Run.AnnualReturn}}%*
- Max drawdown:     *{{pct .Run.MaxDrawdown}}%*
- Sharpe:           *{{printf "%.2f" .Run.Sharpe}}*
- Win rate:         *{{pct .Run.WinRate}}%*
- Profit factor:    *{{if ne .Run.ProfitFactor 0.0}}{{printf "%.2f" .Run.ProfitFactor}}{{else}}(no losses){{end}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Run.Wins}} |
| Losses  | {{.Run.Losses}} |
| Total   | {{.Run.Trades}} |
{{- if .Trades }}

** Trades
| Side | Open | Close | Entry | Exit | Return % |
|------+------+-------+-------+------+----------|
{{- range .Trades }}
| {{side .Direction}} | {{.OpenTime.Format "2006-01-02 15:04"}} | {{.CloseTime.Format "2006-01-02 15:04"}} | {{printf "%.4f" .EntryPrice}} | {{printf "%.4f" .ExitPrice}} | {{pct .Return}}{{if .Liquidated}} (liq){{end}} |
{{- end }}
{{- end }}

{{- if .Run.Notes }}

** Observations
{{- range .Run.Notes }}
- {{.}}
{{- end }}
{{- end }}

{{- if .Run.NextActions }}

** Notes / Next Actions
{{- range .Run.NextActions }}
- [ ] {{.}}
{{- end }}
{{- end }}
`

// FormatTradeOrg renders a TradeRecord as an Org-mode block. Structured
// facts go in the PROPERTIES drawer; the review headings are left empty.
func FormatTradeOrg(t TradeRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** Trade: %s %s (%s)\n", t.Symbol, sideName(t.Direction), shortID(t.TradeID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.TradeID)
	fmt.Fprintf(&b, ":RUN_ID: %s\n", t.RunID)
	fmt.Fprintf(&b, ":SYMBOL: %s\n", t.Symbol)
	fmt.Fprintf(&b, ":DIRECTION: %d\n", t.Direction)
	fmt.Fprintf(&b, ":CONTRACTS: %d\n", t.Contracts)
	fmt.Fprintf(&b, ":ENTRY_PRICE: %.5f\n", t.EntryPrice)
	fmt.Fprintf(&b, ":EXIT_PRICE: %.5f\n", t.ExitPrice)
	fmt.Fprintf(&b, ":OPEN_TIME: %s\n", t.OpenTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":CLOSE_TIME: %s\n", t.CloseTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":RETURN_PCT: %.2f\n", t.Return*100)
	fmt.Fprintf(&b, ":LIQUIDATED: %t\n", t.Liquidated)
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Review\n- \n")
	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

// shortID keeps the tail of a trade id, which is the sequence number.
func shortID(full string) string {
	if i := strings.LastIndexByte(full, '-'); i >= 0 && i < len(full)-1 {
		return full[i+1:]
	}
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
