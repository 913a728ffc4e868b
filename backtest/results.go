package backtest

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/perpbt/market"
)

func pct(x float64) string { return fmt.Sprintf("%.2f%%", x*100) }

func tfString(tf time.Duration) string {
	s, err := market.TimeframeString(tf)
	if err != nil {
		return tf.String()
	}
	return s
}

// PrintResult writes a human readable summary of one run.
func PrintResult(w io.Writer, res *Result) {
	r := res.Report

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", res.RunID)
	fmt.Fprintf(w, "Created:       %s\n", res.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "Strategy:      %s [%s]\n", res.Strategy, res.Params)
	fmt.Fprintf(w, "Symbol:        %s\n", res.Symbol)
	fmt.Fprintf(w, "Timeframe:     %s\n", tfString(res.Timeframe))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	fmt.Fprintf(w, "Bars:          %d\n", r.Bars)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration")
	fmt.Fprintln(w, "--------------------------------------------------")
	c := res.Settings.Sim
	fmt.Fprintf(w, "Initial Cash:  %.2f\n", c.InitialCash)
	fmt.Fprintf(w, "Leverage:      %gx\n", c.Leverage)
	fmt.Fprintf(w, "Fee Rate:      %s\n", pct(c.FeeRate))
	fmt.Fprintf(w, "Slippage:      %s\n", pct(c.Slippage))
	fmt.Fprintf(w, "Lot Size:      %g\n", c.LotSize)
	fmt.Fprintf(w, "Maint. Margin: %s\n", pct(c.MaintenanceMargin))
	if res.Settings.StopLossPct > 0 {
		fmt.Fprintf(w, "Stop Loss:     %s\n", pct(res.Settings.StopLossPct))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Final Equity:  %.4f\n", r.FinalEquity)
	fmt.Fprintf(w, "Annual Return: %s\n", pct(r.AnnualReturn))
	fmt.Fprintf(w, "Monthly Mean:  %s\n", pct(r.MonthlyMeanReturn))
	fmt.Fprintf(w, "Max Drawdown:  %s\n", pct(r.MaxDrawdown))
	if r.MaxDrawdown != 0 {
		fmt.Fprintf(w, "DD Period:     %s -> %s\n", r.DrawdownStart.Format(time.RFC3339), r.DrawdownEnd.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Calmar:        %.2f\n", r.Calmar)
	fmt.Fprintf(w, "Sharpe:        %.2f\n", r.Sharpe)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Losses)
	fmt.Fprintf(w, "Liquidations:  %d\n", r.Liquidations)
	fmt.Fprintf(w, "Win Rate:      %s\n", pct(r.WinRate))
	if r.Trades > 0 {
		fmt.Fprintf(w, "Mean Trade:    %s\n", pct(r.MeanTradeReturn))
		fmt.Fprintf(w, "Best / Worst:  %s / %s\n", pct(r.BestTrade), pct(r.WorstTrade))
		if r.ProfitFactor > 0 {
			fmt.Fprintf(w, "Profit Factor: %.2f\n", r.ProfitFactor)
		}
		fmt.Fprintf(w, "Holding:       %s min, %s mean, %s max\n", r.ShortestHold, r.MeanHold, r.LongestHold)
		fmt.Fprintf(w, "Streaks:       %d wins, %d losses\n", r.MaxWinStreak, r.MaxLossStreak)
	}

	if len(r.Monthly) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Monthly Returns")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, m := range r.Monthly {
			fmt.Fprintf(w, "%s       %s\n", m.Label(), pct(m.Return))
		}
	}

	fmt.Fprintln(w)
}

// PrintRanking writes one line per result, in the given order.
func PrintRanking(w io.Writer, results []*Result, limit int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSYMBOL\tSTRATEGY\tPARAMS\tEQUITY\tANNUAL\tMAX DD\tCALMAR\tSHARPE\tTRADES\tWIN RATE")
	for i, res := range results {
		if limit > 0 && i >= limit {
			break
		}
		r := res.Report
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.4f\t%s\t%s\t%.2f\t%.2f\t%d\t%s\n",
			i+1, res.Symbol, res.Strategy, res.Params, r.FinalEquity,
			pct(r.AnnualReturn), pct(r.MaxDrawdown), r.Calmar, r.Sharpe, r.Trades, pct(r.WinRate))
	}
	tw.Flush()
}
