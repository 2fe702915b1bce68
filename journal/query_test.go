package journal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T, s Store, runID string) {
	t.Helper()
	ctx := context.Background()

	for _, tr := range sampleTrades(runID) {
		require.NoError(t, s.RecordTrade(ctx, tr))
	}
	for _, e := range sampleEquity(runID) {
		require.NoError(t, s.RecordEquity(ctx, e))
	}
	require.NoError(t, s.RecordRun(ctx, sampleRun(runID)))
}

// checkStore runs the same read-back assertions against any Store.
func checkStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	seedStore(t, s, "RUN-A")
	seedStore(t, s, "RUN-B")

	run, err := s.GetRun(ctx, "RUN-A")
	require.NoError(t, err)
	want := sampleRun("RUN-A")
	assert.Equal(t, want.Strategy, run.Strategy)
	assert.Equal(t, want.Symbol, run.Symbol)
	assert.Equal(t, want.Bars, run.Bars)
	assert.Equal(t, want.Trades, run.Trades)
	assert.JSONEq(t, string(want.Config), string(run.Config))
	assert.True(t, run.Start.Equal(want.Start))
	assert.True(t, run.EndEquity.Equal(want.EndEquity), "end equity %s", run.EndEquity)
	assert.True(t, run.TotalReturn.Equal(want.TotalReturn), "total return %s", run.TotalReturn)
	assert.InDelta(t, want.SharpeRatio, run.SharpeRatio, 1e-12)

	_, err = s.GetRun(ctx, "missing")
	assert.ErrorContains(t, err, "not found")

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	trades, err := s.ListTradesByRun(ctx, "RUN-A")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "RUN-A-T1", trades[0].TradeID)
	assert.True(t, trades[0].Price.Equal(d("100.5")))
	assert.False(t, trades[0].RealizedPnL.Valid)
	assert.True(t, trades[1].RealizedPnL.Valid)
	assert.True(t, trades[1].RealizedPnL.Decimal.Equal(d("33.6")))
	assert.True(t, trades[1].Time.Equal(testClose))

	equity, err := s.ListEquityByRun(ctx, "RUN-B")
	require.NoError(t, err)
	require.Len(t, equity, 2)
	assert.True(t, equity[0].Equity().Equal(d("10001")))
	assert.True(t, equity[1].Cash.Equal(d("10033.6")))

	// Re-recording a run replaces it.
	updated := sampleRun("RUN-A")
	updated.Bars = 99
	require.NoError(t, s.RecordRun(ctx, updated))
	run, err = s.GetRun(ctx, "RUN-A")
	require.NoError(t, err)
	assert.Equal(t, 99, run.Bars)
}

func TestSQLiteQueries(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	checkStore(t, j)
}
