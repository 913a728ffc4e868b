package journal

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// PrintRuns writes one line per run.
func PrintRuns(w io.Writer, runs []BacktestRun) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tSYMBOL\tSTRATEGY\tPARAMS\tEQUITY\tANNUAL\tMAX DD\tCALMAR\tTRADES")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.4f\t%.2f%%\t%.2f%%\t%.2f\t%d\n",
			r.RunID, r.Created.Format("2006-01-02 15:04"), r.Symbol, r.Strategy, r.Params,
			r.FinalEquity, r.AnnualReturn*100, r.MaxDrawdown*100, r.Calmar, r.Trades)
	}
	tw.Flush()
}

// PrintTrades writes one line per trade.
func PrintTrades(w io.Writer, trades []TradeRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TRADE\tSIDE\tOPEN\tCLOSE\tBARS\tCONTRACTS\tENTRY\tEXIT\tRETURN\t")
	for _, t := range trades {
		liq := ""
		if t.Liquidated {
			liq = "liquidated"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%.4f\t%.4f\t%.2f%%\t%s\n",
			shortID(t.TradeID), sideName(t.Direction),
			t.OpenTime.Format("2006-01-02 15:04"), t.CloseTime.Format("2006-01-02 15:04"),
			t.Bars, t.Contracts, t.EntryPrice, t.ExitPrice, t.Return*100, liq)
	}
	tw.Flush()
}
