package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the queryable journal. It is safe for concurrent use.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

const insertRun = `
	INSERT INTO backtest_runs (
		run_id, created, symbol, strategy, params, timeframe,
		start_time, end_time, bars,
		initial_cash, leverage, fee_rate, slippage, stop_loss_pct, position_delay,
		final_equity, annual_return, max_drawdown, calmar, sharpe, volatility,
		trades, wins, losses, liquidations, win_rate, profit_factor,
		avg_win, avg_loss, elapsed_ms
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (j *SQLite) RecordRun(ctx context.Context, r BacktestRun) error {
	_, err := j.db.ExecContext(ctx, insertRun,
		r.RunID, r.Created.UTC(), r.Symbol, r.Strategy, r.Params, r.Timeframe,
		r.Start.UTC(), r.End.UTC(), r.Bars,
		r.InitialCash, r.Leverage, r.FeeRate, r.Slippage, r.StopLossPct, r.PositionDelay,
		r.FinalEquity, r.AnnualReturn, r.MaxDrawdown, r.Calmar, r.Sharpe, r.Volatility,
		r.Trades, r.Wins, r.Losses, r.Liquidations, r.WinRate, r.ProfitFactor,
		r.AvgWin, r.AvgLoss, r.Elapsed.Milliseconds(),
	)
	return err
}

// RecordTrades inserts all trades in one transaction.
func (j *SQLite) RecordTrades(ctx context.Context, trades []TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}
	return j.inTx(ctx, `
		INSERT INTO trades
		(trade_id, run_id, symbol, direction, open_time, close_time,
		 entry_price, exit_price, contracts, bars, trade_return, min_equity, liquidated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(trades), func(stmt *sql.Stmt, i int) error {
			t := trades[i]
			_, err := stmt.ExecContext(ctx,
				t.TradeID, t.RunID, t.Symbol, t.Direction, t.OpenTime.UTC(), t.CloseTime.UTC(),
				t.EntryPrice, t.ExitPrice, t.Contracts, t.Bars, t.Return, t.MinEquity, t.Liquidated,
			)
			return err
		})
}

// RecordEquity inserts the per-bar rows in one transaction.
func (j *SQLite) RecordEquity(ctx context.Context, rows []EquitySnapshot) error {
	if len(rows) == 0 {
		return nil
	}
	return j.inTx(ctx, `
		INSERT INTO equity
		(run_id, time, close, signal, position, net_value, cumulative, drawdown, liquidated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(rows), func(stmt *sql.Stmt, i int) error {
			e := rows[i]
			_, err := stmt.ExecContext(ctx,
				e.RunID, e.Time.UTC(), e.Close, e.Signal, e.Position,
				e.NetValue, e.Cumulative, e.Drawdown, e.Liquidated,
			)
			return err
		})
}

func (j *SQLite) inTx(ctx context.Context, query string, n int, exec func(*sql.Stmt, int) error) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
