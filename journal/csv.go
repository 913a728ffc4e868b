package journal

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

var (
	runsHeader = []string{
		"run_id", "created", "symbol", "strategy", "params", "timeframe",
		"start", "end", "bars",
		"initial_cash", "leverage", "fee_rate", "slippage", "stop_loss_pct", "position_delay",
		"final_equity", "annual_return", "max_drawdown", "calmar", "sharpe", "volatility",
		"trades", "wins", "losses", "liquidations", "win_rate", "profit_factor",
		"avg_win", "avg_loss", "elapsed_ms",
	}
	tradesHeader = []string{
		"trade_id", "run_id", "symbol", "direction", "open_time", "close_time",
		"entry_price", "exit_price", "contracts", "bars", "trade_return", "min_equity", "liquidated",
	}
	equityHeader = []string{
		"run_id", "time", "close", "signal", "position",
		"net_value", "cumulative", "drawdown", "liquidated",
	}
)

// CSVJournal appends to runs.csv, trades.csv and equity.csv in one
// directory. Headers are written when a file is created. It is safe for
// concurrent use.
type CSVJournal struct {
	mu     sync.Mutex
	runs   *csv.Writer
	trades *csv.Writer
	equity *csv.Writer
	files  []*os.File
}

func NewCSV(dir string) (*CSVJournal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	j := &CSVJournal{}
	open := func(name string, header []string) (*csv.Writer, error) {
		fp, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		j.files = append(j.files, fp)

		w := csv.NewWriter(fp)
		st, err := fp.Stat()
		if err != nil {
			return nil, err
		}
		if st.Size() == 0 {
			if err := w.Write(header); err != nil {
				return nil, err
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return nil, err
			}
		}
		return w, nil
	}

	var err error
	if j.runs, err = open("runs.csv", runsHeader); err != nil {
		j.closeFiles()
		return nil, err
	}
	if j.trades, err = open("trades.csv", tradesHeader); err != nil {
		j.closeFiles()
		return nil, err
	}
	if j.equity, err = open("equity.csv", equityHeader); err != nil {
		j.closeFiles()
		return nil, err
	}
	return j, nil
}

func (j *CSVJournal) RecordRun(_ context.Context, r BacktestRun) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := j.runs.Write([]string{
		r.RunID,
		ts(r.Created),
		r.Symbol,
		r.Strategy,
		r.Params,
		r.Timeframe,
		ts(r.Start),
		ts(r.End),
		strconv.Itoa(r.Bars),
		f(r.InitialCash),
		f(r.Leverage),
		f(r.FeeRate),
		f(r.Slippage),
		f(r.StopLossPct),
		strconv.Itoa(r.PositionDelay),
		f(r.FinalEquity),
		f(r.AnnualReturn),
		f(r.MaxDrawdown),
		f(r.Calmar),
		f(r.Sharpe),
		f(r.Volatility),
		strconv.Itoa(r.Trades),
		strconv.Itoa(r.Wins),
		strconv.Itoa(r.Losses),
		strconv.Itoa(r.Liquidations),
		f(r.WinRate),
		f(r.ProfitFactor),
		f(r.AvgWin),
		f(r.AvgLoss),
		strconv.FormatInt(r.Elapsed.Milliseconds(), 10),
	})
	if err != nil {
		return err
	}
	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSVJournal) RecordTrades(_ context.Context, trades []TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, t := range trades {
		err := j.trades.Write([]string{
			t.TradeID,
			t.RunID,
			t.Symbol,
			strconv.Itoa(t.Direction),
			ts(t.OpenTime),
			ts(t.CloseTime),
			f(t.EntryPrice),
			f(t.ExitPrice),
			strconv.FormatInt(t.Contracts, 10),
			strconv.Itoa(t.Bars),
			f(t.Return),
			f(t.MinEquity),
			strconv.FormatBool(t.Liquidated),
		})
		if err != nil {
			return err
		}
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(_ context.Context, rows []EquitySnapshot) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, e := range rows {
		err := j.equity.Write([]string{
			e.RunID,
			ts(e.Time),
			f(e.Close),
			optInt(e.Signal),
			strconv.Itoa(e.Position),
			f(e.NetValue),
			f(e.Cumulative),
			f(e.Drawdown),
			strconv.FormatBool(e.Liquidated),
		})
		if err != nil {
			return err
		}
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, w := range []*csv.Writer{j.runs, j.trades, j.equity} {
		w.Flush()
		if err := w.Error(); err != nil {
			j.closeFiles()
			return err
		}
	}
	return j.closeFiles()
}

func (j *CSVJournal) closeFiles() error {
	var first error
	for _, fp := range j.files {
		if err := fp.Close(); err != nil && first == nil {
			first = fmt.Errorf("close %s: %w", fp.Name(), err)
		}
	}
	j.files = nil
	return first
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func ts(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
