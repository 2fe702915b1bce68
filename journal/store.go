package journal

import "context"

// Store is a Journal that can also be queried for past runs.
type Store interface {
	Journal
	GetRun(ctx context.Context, runID string) (RunRecord, error)
	ListRuns(ctx context.Context) ([]RunRecord, error)
	ListTradesByRun(ctx context.Context, runID string) ([]TradeRecord, error)
	ListEquityByRun(ctx context.Context, runID string) ([]EquityRecord, error)
}

var (
	_ Store   = (*SQLite)(nil)
	_ Store   = (*Postgres)(nil)
	_ Journal = (*CSVJournal)(nil)
	_ Journal = Multi(nil)
	_ Journal = Discard{}
)
