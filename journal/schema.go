package journal

// Schema is the SQLite schema. Times are stored by the driver as UTC text.
const Schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	strategy TEXT NOT NULL,
	params TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	bars INTEGER NOT NULL,
	initial_cash REAL NOT NULL,
	leverage REAL NOT NULL,
	fee_rate REAL NOT NULL,
	slippage REAL NOT NULL,
	stop_loss_pct REAL NOT NULL,
	position_delay INTEGER NOT NULL,
	final_equity REAL NOT NULL,
	annual_return REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	calmar REAL NOT NULL,
	sharpe REAL NOT NULL,
	volatility REAL NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	liquidations INTEGER NOT NULL,
	win_rate REAL NOT NULL,
	profit_factor REAL NOT NULL,
	avg_win REAL NOT NULL,
	avg_loss REAL NOT NULL,
	elapsed_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_symbol_strategy ON backtest_runs(symbol, strategy);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	direction INTEGER NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	contracts INTEGER NOT NULL,
	bars INTEGER NOT NULL,
	trade_return REAL NOT NULL,
	min_equity REAL NOT NULL,
	liquidated BOOLEAN NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
CREATE INDEX IF NOT EXISTS idx_trades_close ON trades(close_time);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	close REAL NOT NULL,
	signal INTEGER,
	position INTEGER NOT NULL,
	net_value REAL NOT NULL,
	cumulative REAL NOT NULL,
	drawdown REAL NOT NULL,
	liquidated BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, time)
);
`
