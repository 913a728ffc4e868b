package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/perpbt/backtest"
)

const runColumns = `
	run_id, created, symbol, strategy, params, timeframe,
	start_time, end_time, bars,
	initial_cash, leverage, fee_rate, slippage, stop_loss_pct, position_delay,
	final_equity, annual_return, max_drawdown, calmar, sharpe, volatility,
	trades, wins, losses, liquidations, win_rate, profit_factor,
	avg_win, avg_loss, elapsed_ms`

const tradeColumns = `
	trade_id, run_id, symbol, direction, open_time, close_time,
	entry_price, exit_price, contracts, bars, trade_return, min_equity, liquidated`

// rankColumns maps a ranking metric onto its column. Larger is better for
// all of them, drawdowns included since they are negative.
var rankColumns = map[backtest.Metric]string{
	backtest.MetricFinalEquity:  "final_equity",
	backtest.MetricAnnualReturn: "annual_return",
	backtest.MetricCalmar:       "calmar",
	backtest.MetricSharpe:       "sharpe",
	backtest.MetricMaxDrawdown:  "max_drawdown",
	backtest.MetricWinRate:      "win_rate",
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (BacktestRun, error) {
	var r BacktestRun
	var elapsed int64
	err := s.Scan(
		&r.RunID, &r.Created, &r.Symbol, &r.Strategy, &r.Params, &r.Timeframe,
		&r.Start, &r.End, &r.Bars,
		&r.InitialCash, &r.Leverage, &r.FeeRate, &r.Slippage, &r.StopLossPct, &r.PositionDelay,
		&r.FinalEquity, &r.AnnualReturn, &r.MaxDrawdown, &r.Calmar, &r.Sharpe, &r.Volatility,
		&r.Trades, &r.Wins, &r.Losses, &r.Liquidations, &r.WinRate, &r.ProfitFactor,
		&r.AvgWin, &r.AvgLoss, &elapsed,
	)
	r.Elapsed = time.Duration(elapsed) * time.Millisecond
	return r, err
}

func scanTrade(s scanner) (TradeRecord, error) {
	var t TradeRecord
	err := s.Scan(
		&t.TradeID, &t.RunID, &t.Symbol, &t.Direction, &t.OpenTime, &t.CloseTime,
		&t.EntryPrice, &t.ExitPrice, &t.Contracts, &t.Bars, &t.Return, &t.MinEquity, &t.Liquidated,
	)
	return t, err
}

// GetRun returns a single run by id.
func (j *SQLite) GetRun(ctx context.Context, runID string) (BacktestRun, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM backtest_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BacktestRun{}, fmt.Errorf("run %q: %w", runID, ErrNotFound)
		}
		return BacktestRun{}, err
	}
	return r, nil
}

// RunFilter narrows ListRuns. Empty fields match everything; without
// OrderBy runs are listed newest first.
type RunFilter struct {
	Symbol   string
	Strategy string
	OrderBy  backtest.Metric
	Limit    int
}

// ListRuns returns runs matching f.
func (j *SQLite) ListRuns(ctx context.Context, f RunFilter) ([]BacktestRun, error) {
	var where []string
	var args []any
	if f.Symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, f.Symbol)
	}
	if f.Strategy != "" {
		where = append(where, "strategy = ?")
		args = append(args, f.Strategy)
	}

	q := `SELECT ` + runColumns + ` FROM backtest_runs`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	if f.OrderBy != "" {
		col, ok := rankColumns[f.OrderBy]
		if !ok {
			return nil, fmt.Errorf("unknown metric %q", f.OrderBy)
		}
		q += ` ORDER BY ` + col + ` DESC, created DESC`
	} else {
		q += ` ORDER BY created DESC`
	}
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BacktestRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTrades returns the trades of one run in open order.
func (j *SQLite) ListTrades(ctx context.Context, runID string) ([]TradeRecord, error) {
	return j.queryTrades(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE run_id = ?
		ORDER BY open_time ASC`, runID)
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *SQLite) ListTradesClosedBetween(ctx context.Context, start, end time.Time) ([]TradeRecord, error) {
	return j.queryTrades(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start.UTC(), end.UTC())
}

func (j *SQLite) queryTrades(ctx context.Context, q string, args ...any) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquity returns the per-bar rows of one run in time order.
func (j *SQLite) ListEquity(ctx context.Context, runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, time, close, signal, position, net_value, cumulative, drawdown, liquidated
		FROM equity
		WHERE run_id = ?
		ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(
			&e.RunID, &e.Time, &e.Close, &e.Signal, &e.Position,
			&e.NetValue, &e.Cumulative, &e.Drawdown, &e.Liquidated,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
