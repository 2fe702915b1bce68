package journal

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores runs, trades and equity in a single database file so
// several runs can be compared later.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(ctx context.Context, r RunRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
		(run_id, created, strategy, symbol, dataset, config, start_time, end_time, bars,
		 trades, closed_trades, start_equity, end_equity, total_return,
		 annualised_volatility, max_drawdown, sharpe_ratio, win_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.Strategy, r.Symbol, r.Dataset, string(r.Config),
		r.Start.UTC(), r.End.UTC(), r.Bars, r.Trades, r.ClosedTrades,
		r.StartEquity, r.EndEquity, r.TotalReturn,
		r.AnnualisedVolatility, r.MaxDrawdown, r.SharpeRatio, r.WinRate,
	)
	return err
}

func (j *SQLite) RecordTrade(ctx context.Context, t TradeRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades
		(trade_id, run_id, time, symbol, side, quantity, price, fee, slippage, realized_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.Time.UTC(), t.Symbol, t.Side,
		t.Quantity, t.Price, t.Fee, t.Slippage, t.RealizedPnL,
	)
	return err
}

func (j *SQLite) RecordEquity(ctx context.Context, e EquityRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO equity
		(run_id, time, cash, positions_value)
		VALUES (?, ?, ?, ?)`,
		e.RunID, e.Time.UTC(), e.Cash, e.PositionsValue,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
