package journal

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	trades := sampleTrades("01HXYZABCDEF")
	result := FormatTradeOrg(trades[1])

	assert.Contains(t, result, "** Trade: SELL 2 AAPL (01HXYZAB)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":TRADE_ID: 01HXYZABCDEF-T2")
	assert.Contains(t, result, ":RUN_ID: 01HXYZABCDEF")
	assert.Contains(t, result, ":TIME: 2024-01-05T00:00:00Z")
	assert.Contains(t, result, ":NOTIONAL: 238.8")
	assert.Contains(t, result, ":REALIZED_PNL: 33.60")
	assert.Contains(t, result, ":END:")

	assert.NotContains(t, FormatTradeOrg(trades[0]), ":REALIZED_PNL:")
}

func TestFormatTradesOrg(t *testing.T) {
	out := FormatTradesOrg(sampleTrades("R"))
	assert.Equal(t, 2, bytes.Count([]byte(out), []byte("** Trade:")))
	assert.Empty(t, FormatTradesOrg(nil))
}

func TestFormatRunsTable(t *testing.T) {
	out := FormatRunsTable([]RunRecord{sampleRun("RUN-A")})
	assert.Contains(t, out, "| RUN-A | 2024-02-01 12:00 | sma-cross | AAPL | 4 | 2 | 0.33 | -5.00 | 1.500 |")
}

func TestWriteRunOrg(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRunOrg(&buf, sampleRun("RUN-A")))

	out := buf.String()
	assert.Contains(t, out, "* BACKTEST: sma-cross AAPL")
	assert.Contains(t, out, ":RUN_ID:      RUN-A")
	assert.Contains(t, out, ":END_EQ:      10033.60")
	assert.Contains(t, out, "- Max Drawdown:     *-5.00%*")
	assert.Contains(t, out, "- Win Rate:         *100.00%*")
	assert.Contains(t, out, `{"symbol":"AAPL"}`)
}

type failingJournal struct {
	Discard
	closed bool
}

func (f *failingJournal) RecordTrade(context.Context, TradeRecord) error {
	return errors.New("disk full")
}

func (f *failingJournal) Close() error {
	f.closed = true
	return errors.New("close failed")
}

func TestMulti(t *testing.T) {
	dir := t.TempDir()
	csvJ, err := NewCSV(dir+"/trades.csv", dir+"/equity_curve.csv")
	require.NoError(t, err)
	bad := &failingJournal{}

	m := Multi{csvJ, bad}
	ctx := context.Background()

	assert.NoError(t, m.RecordEquity(ctx, sampleEquity("R")[0]))
	assert.NoError(t, m.RecordRun(ctx, sampleRun("R")))
	assert.ErrorContains(t, m.RecordTrade(ctx, sampleTrades("R")[0]), "disk full")

	err = m.Close()
	assert.ErrorContains(t, err, "close failed")
	assert.True(t, bad.closed)
}
