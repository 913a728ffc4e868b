package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id TEXT PRIMARY KEY,
	created TIMESTAMPTZ NOT NULL,
	symbol TEXT NOT NULL,
	strategy TEXT NOT NULL,
	params TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ NOT NULL,
	bars INTEGER NOT NULL,
	initial_cash DOUBLE PRECISION NOT NULL,
	leverage DOUBLE PRECISION NOT NULL,
	fee_rate DOUBLE PRECISION NOT NULL,
	slippage DOUBLE PRECISION NOT NULL,
	stop_loss_pct DOUBLE PRECISION NOT NULL,
	position_delay INTEGER NOT NULL,
	final_equity DOUBLE PRECISION NOT NULL,
	annual_return DOUBLE PRECISION NOT NULL,
	max_drawdown DOUBLE PRECISION NOT NULL,
	calmar DOUBLE PRECISION NOT NULL,
	sharpe DOUBLE PRECISION NOT NULL,
	volatility DOUBLE PRECISION NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	liquidations INTEGER NOT NULL,
	win_rate DOUBLE PRECISION NOT NULL,
	profit_factor DOUBLE PRECISION NOT NULL,
	avg_win DOUBLE PRECISION NOT NULL,
	avg_loss DOUBLE PRECISION NOT NULL,
	elapsed_ms BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS backtest_trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES backtest_runs(run_id) ON DELETE CASCADE,
	symbol TEXT NOT NULL,
	direction SMALLINT NOT NULL,
	open_time TIMESTAMPTZ NOT NULL,
	close_time TIMESTAMPTZ NOT NULL,
	entry_price DOUBLE PRECISION NOT NULL,
	exit_price DOUBLE PRECISION NOT NULL,
	contracts BIGINT NOT NULL,
	bars INTEGER NOT NULL,
	trade_return DOUBLE PRECISION NOT NULL,
	min_equity DOUBLE PRECISION NOT NULL,
	liquidated BOOLEAN NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_backtest_trades_run ON backtest_trades(run_id);

CREATE TABLE IF NOT EXISTS backtest_equity (
	run_id TEXT NOT NULL REFERENCES backtest_runs(run_id) ON DELETE CASCADE,
	time TIMESTAMPTZ NOT NULL,
	close DOUBLE PRECISION NOT NULL,
	signal SMALLINT,
	position SMALLINT NOT NULL,
	net_value DOUBLE PRECISION NOT NULL,
	cumulative DOUBLE PRECISION NOT NULL,
	drawdown DOUBLE PRECISION NOT NULL,
	liquidated BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, time)
);
`

var equityColumns = []string{
	"run_id", "time", "close", "signal", "position",
	"net_value", "cumulative", "drawdown", "liquidated",
}

// Postgres writes runs through a pgx pool. It is safe for concurrent use.
// Runs must be recorded before their trades and equity rows.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn and creates the tables.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create postgres tables: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) RecordRun(ctx context.Context, r BacktestRun) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO backtest_runs (`+runColumns+`) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30
		)`,
		r.RunID, r.Created.UTC(), r.Symbol, r.Strategy, r.Params, r.Timeframe,
		r.Start.UTC(), r.End.UTC(), r.Bars,
		r.InitialCash, r.Leverage, r.FeeRate, r.Slippage, r.StopLossPct, r.PositionDelay,
		r.FinalEquity, r.AnnualReturn, r.MaxDrawdown, r.Calmar, r.Sharpe, r.Volatility,
		r.Trades, r.Wins, r.Losses, r.Liquidations, r.WinRate, r.ProfitFactor,
		r.AvgWin, r.AvgLoss, r.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordTrades inserts all trades atomically.
func (p *Postgres) RecordTrades(ctx context.Context, trades []TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		_, err := tx.Exec(ctx, `
			INSERT INTO backtest_trades (`+tradeColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			t.TradeID, t.RunID, t.Symbol, int16(t.Direction), t.OpenTime.UTC(), t.CloseTime.UTC(),
			t.EntryPrice, t.ExitPrice, t.Contracts, t.Bars, t.Return, t.MinEquity, t.Liquidated,
		)
		if err != nil {
			return fmt.Errorf("insert trade %s: %w", t.TradeID, err)
		}
	}
	return tx.Commit(ctx)
}

// RecordEquity streams the per-bar rows with COPY.
func (p *Postgres) RecordEquity(ctx context.Context, rows []EquitySnapshot) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := p.pool.CopyFrom(ctx,
		pgx.Identifier{"backtest_equity"},
		equityColumns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			e := rows[i]
			return []any{
				e.RunID, e.Time.UTC(), e.Close, nullInt16(e.Signal), int16(e.Position),
				e.NetValue, e.Cumulative, e.Drawdown, e.Liquidated,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy equity: %w", err)
	}
	return nil
}

// GetRun returns a single run by id.
func (p *Postgres) GetRun(ctx context.Context, runID string) (BacktestRun, error) {
	r, err := scanRun(p.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM backtest_runs WHERE run_id = $1`, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BacktestRun{}, fmt.Errorf("run %q: %w", runID, ErrNotFound)
		}
		return BacktestRun{}, err
	}
	return r, nil
}

// CountEquity returns the number of equity rows stored for a run.
func (p *Postgres) CountEquity(ctx context.Context, runID string) (int64, error) {
	var n int64
	err := p.pool.QueryRow(ctx, `SELECT count(*) FROM backtest_equity WHERE run_id = $1`, runID).Scan(&n)
	return n, err
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func nullInt16(p *int) *int16 {
	if p == nil {
		return nil
	}
	v := int16(*p)
	return &v
}
