package journal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSchema mirrors Schema with NUMERIC money columns.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created TIMESTAMPTZ NOT NULL,
	strategy TEXT NOT NULL,
	symbol TEXT NOT NULL,
	dataset TEXT NOT NULL,
	config TEXT NOT NULL,
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ NOT NULL,
	bars INTEGER NOT NULL,
	trades INTEGER NOT NULL,
	closed_trades INTEGER NOT NULL,
	start_equity NUMERIC NOT NULL,
	end_equity NUMERIC NOT NULL,
	total_return NUMERIC NOT NULL,
	annualised_volatility DOUBLE PRECISION NOT NULL,
	max_drawdown DOUBLE PRECISION NOT NULL,
	sharpe_ratio DOUBLE PRECISION NOT NULL,
	win_rate DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	time TIMESTAMPTZ NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity NUMERIC NOT NULL,
	price NUMERIC NOT NULL,
	fee NUMERIC NOT NULL,
	slippage NUMERIC NOT NULL,
	realized_pnl NUMERIC
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	time TIMESTAMPTZ NOT NULL,
	cash NUMERIC NOT NULL,
	positions_value NUMERIC NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, time);
CREATE INDEX IF NOT EXISTS idx_equity_run ON equity(run_id, time);
`

// Decimal columns are read back as text so decimal.Decimal can scan them.
const pgRunColumns = `run_id, created, strategy, symbol, dataset, config, start_time, end_time, bars,
	trades, closed_trades, start_equity::text, end_equity::text, total_return::text,
	annualised_volatility, max_drawdown, sharpe_ratio, win_rate`

// Postgres is a Journal backed by a pgx connection pool, for sharing run
// history between machines.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn and creates the tables if needed.
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

	if _, err := pool.Exec(ctx, PostgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (j *Postgres) RecordRun(ctx context.Context, r RunRecord) error {
	_, err := j.pool.Exec(ctx, `
		INSERT INTO runs
		(run_id, created, strategy, symbol, dataset, config, start_time, end_time, bars,
		 trades, closed_trades, start_equity, end_equity, total_return,
		 annualised_volatility, max_drawdown, sharpe_ratio, win_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (run_id) DO UPDATE SET
			end_time = EXCLUDED.end_time,
			bars = EXCLUDED.bars,
			trades = EXCLUDED.trades,
			closed_trades = EXCLUDED.closed_trades,
			end_equity = EXCLUDED.end_equity,
			total_return = EXCLUDED.total_return,
			annualised_volatility = EXCLUDED.annualised_volatility,
			max_drawdown = EXCLUDED.max_drawdown,
			sharpe_ratio = EXCLUDED.sharpe_ratio,
			win_rate = EXCLUDED.win_rate`,
		r.RunID, r.Created.UTC(), r.Strategy, r.Symbol, r.Dataset, string(r.Config),
		r.Start.UTC(), r.End.UTC(), r.Bars, r.Trades, r.ClosedTrades,
		r.StartEquity, r.EndEquity, r.TotalReturn,
		r.AnnualisedVolatility, r.MaxDrawdown, r.SharpeRatio, r.WinRate,
	)
	return err
}

func (j *Postgres) RecordTrade(ctx context.Context, t TradeRecord) error {
	_, err := j.pool.Exec(ctx, `
		INSERT INTO trades
		(trade_id, run_id, time, symbol, side, quantity, price, fee, slippage, realized_pnl)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.TradeID, t.RunID, t.Time.UTC(), t.Symbol, t.Side,
		t.Quantity, t.Price, t.Fee, t.Slippage, t.RealizedPnL,
	)
	return err
}

func (j *Postgres) RecordEquity(ctx context.Context, e EquityRecord) error {
	_, err := j.pool.Exec(ctx, `
		INSERT INTO equity
		(run_id, time, cash, positions_value)
		VALUES ($1, $2, $3, $4)`,
		e.RunID, e.Time.UTC(), e.Cash, e.PositionsValue,
	)
	return err
}

// GetRun returns a single run record by ID.
func (j *Postgres) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	row := j.pool.QueryRow(ctx, `SELECT `+pgRunColumns+` FROM runs WHERE run_id = $1`, runID)
	rec, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("run %q not found", runID)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns every recorded run, newest first.
func (j *Postgres) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := j.pool.Query(ctx, `SELECT `+pgRunColumns+` FROM runs ORDER BY created DESC, run_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListTradesByRun returns the trades of one run in execution order.
func (j *Postgres) ListTradesByRun(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.pool.Query(ctx, `
		SELECT trade_id, run_id, time, symbol, side,
			quantity::text, price::text, fee::text, slippage::text, realized_pnl::text
		FROM trades
		WHERE run_id = $1
		ORDER BY time ASC, trade_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.TradeID,
			&rec.RunID,
			&rec.Time,
			&rec.Symbol,
			&rec.Side,
			&rec.Quantity,
			&rec.Price,
			&rec.Fee,
			&rec.Slippage,
			&rec.RealizedPnL,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListEquityByRun returns the equity curve of one run in time order.
func (j *Postgres) ListEquityByRun(ctx context.Context, runID string) ([]EquityRecord, error) {
	rows, err := j.pool.Query(ctx, `
		SELECT run_id, time, cash::text, positions_value::text
		FROM equity
		WHERE run_id = $1
		ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRecord
	for rows.Next() {
		var rec EquityRecord
		if err := rows.Scan(&rec.RunID, &rec.Time, &rec.Cash, &rec.PositionsValue); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (j *Postgres) Close() error {
	j.pool.Close()
	return nil
}
