package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/observability"
	"github.com/rustyeddy/backtester/pkg/id"
	"github.com/rustyeddy/backtester/sim"
	"github.com/rustyeddy/backtester/strategies"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// flatBars builds one bar per price with open == high == low == close.
func flatBars(prices ...int64) []market.Bar {
	bars := make([]market.Bar, len(prices))
	for i, p := range prices {
		px := decimal.NewFromInt(p)
		bars[i] = market.Bar{Time: t0.AddDate(0, 0, i), Open: px, High: px, Low: px, Close: px, Volume: 100}
	}
	return bars
}

// scriptedStrategy returns script[len(bars)] when present, Hold otherwise.
type scriptedStrategy struct {
	script map[int]market.Signal
	calls  []int
	err    error
}

func (s *scriptedStrategy) Name() string { return "scripted" }

func (s *scriptedStrategy) Decide(bars []market.Bar) (market.Signal, error) {
	s.calls = append(s.calls, len(bars))
	if s.err != nil {
		return market.Hold, s.err
	}
	return s.script[len(bars)], nil
}

// recordingJournal keeps everything in memory.
type recordingJournal struct {
	trades []journal.TradeRecord
	equity []journal.EquityRecord
	err    error
}

func (j *recordingJournal) RecordRun(context.Context, journal.RunRecord) error { return nil }

func (j *recordingJournal) RecordTrade(_ context.Context, t journal.TradeRecord) error {
	if j.err != nil {
		return j.err
	}
	j.trades = append(j.trades, t)
	return nil
}

func (j *recordingJournal) RecordEquity(_ context.Context, e journal.EquityRecord) error {
	j.equity = append(j.equity, e)
	return nil
}

func (j *recordingJournal) Close() error { return nil }

func newRunner(t *testing.T, cash, fee string, strat strategies.Strategy, bars []market.Bar) *Runner {
	t.Helper()
	exec, err := sim.NewExecutionModel(d(fee), decimal.Zero, sim.FillOpen)
	require.NoError(t, err)
	pf, err := sim.NewPortfolio(d(cash))
	require.NoError(t, err)
	return &Runner{
		Execution: exec,
		Portfolio: pf,
		Strategy:  strat,
		Bars:      bars,
		Symbol:    "AAPL",
		Quantity:  d("2"),
		RunID:     "RUN1",
	}
}

func TestRunner_Run_Validation(t *testing.T) {
	t.Parallel()

	bars := flatBars(100, 101)
	tests := []struct {
		name    string
		mutate  func(r *Runner)
		errMsg  string
		wantErr error
	}{
		{name: "missing execution", mutate: func(r *Runner) { r.Execution = nil }, errMsg: "backtest: Execution is required"},
		{name: "missing portfolio", mutate: func(r *Runner) { r.Portfolio = nil }, errMsg: "backtest: Portfolio is required"},
		{name: "missing strategy", mutate: func(r *Runner) { r.Strategy = nil }, errMsg: "backtest: Strategy is required"},
		{name: "missing symbol", mutate: func(r *Runner) { r.Symbol = "" }, errMsg: "backtest: Symbol is required"},
		{name: "zero quantity", mutate: func(r *Runner) { r.Quantity = decimal.Zero }, wantErr: market.ErrConfig},
		{name: "negative periods", mutate: func(r *Runner) { r.PeriodsPerYear = -1 }, wantErr: market.ErrConfig},
		{name: "one bar", mutate: func(r *Runner) { r.Bars = bars[:1] }, wantErr: market.ErrDegenerateInput},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newRunner(t, "1000", "0", strategies.Noop{}, bars)
			tt.mutate(r)

			_, err := r.Run(context.Background())
			require.Error(t, err)
			if tt.errMsg != "" {
				assert.Equal(t, tt.errMsg, err.Error())
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRunner_Run_RoundTrip(t *testing.T) {
	t.Parallel()

	strat := &scriptedStrategy{script: map[int]market.Signal{
		1: market.SignalBuy,
		3: market.SignalSell,
	}}
	j := &recordingJournal{}
	r := newRunner(t, "1000", "1", strat, flatBars(100, 100, 110, 120, 130))
	r.Journal = j

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	// Decide sees bars[:i] for i = 1..n-1.
	assert.Equal(t, []int{1, 2, 3, 4}, strat.calls)

	require.Len(t, res.Trades, 2)
	buy, sell := res.Trades[0], res.Trades[1]

	assert.Equal(t, market.Buy, buy.Side)
	assert.True(t, d("100").Equal(buy.Price))
	assert.True(t, t0.AddDate(0, 0, 1).Equal(buy.Time))

	assert.Equal(t, market.Sell, sell.Side)
	assert.True(t, d("2").Equal(sell.Quantity))
	assert.True(t, d("120").Equal(sell.Price))
	assert.True(t, t0.AddDate(0, 0, 3).Equal(sell.Time))

	ts, err := id.Time(sell.ID)
	require.NoError(t, err)
	assert.True(t, sell.Time.Equal(ts))

	require.Len(t, res.EquityCurve, 4)
	want := []string{"999", "1019", "1038", "1038"}
	for i, w := range want {
		assert.True(t, d(w).Equal(res.EquityCurve[i].Equity()), "snapshot %d: %s", i, res.EquityCurve[i].Equity())
	}

	require.Len(t, res.RealizedPnL, 2)
	assert.False(t, res.RealizedPnL[0].Valid)
	assert.True(t, d("38").Equal(res.RealizedPnL[1].Decimal))

	assert.Equal(t, 1, res.Summary.ClosedTrades)
	assert.Equal(t, 1.0, res.Summary.WinRate)
	assert.True(t, d("39").Div(d("999")).Equal(res.Summary.TotalReturn))
	assert.True(t, d("999").Equal(res.Summary.StartEquity))
	assert.True(t, d("1038").Equal(res.Summary.EndEquity))
	assert.Equal(t, 252, res.Summary.PeriodsPerYear)

	assert.Equal(t, "RUN1", res.RunID)
	assert.Equal(t, 5, res.Bars)
	assert.True(t, t0.Equal(res.Start))
	assert.True(t, t0.AddDate(0, 0, 4).Equal(res.End))

	require.Len(t, j.trades, 2)
	require.Len(t, j.equity, 4)
	assert.Equal(t, "SELL", j.trades[1].Side)
	assert.Equal(t, "RUN1", j.trades[1].RunID)
	assert.Equal(t, sell.ID, j.trades[1].TradeID)
	assert.True(t, d("38").Equal(j.trades[1].RealizedPnL.Decimal))
	assert.False(t, j.trades[0].RealizedPnL.Valid)
}

func TestRunner_Run_SignalsNeedMatchingState(t *testing.T) {
	t.Parallel()

	// Sell while flat and buy while long are both ignored.
	strat := &scriptedStrategy{script: map[int]market.Signal{
		1: market.SignalSell,
		2: market.SignalBuy,
		3: market.SignalBuy,
	}}
	r := newRunner(t, "1000", "0", strat, flatBars(10, 10, 10, 10, 10))

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, market.Buy, res.Trades[0].Side)

	pos, ok := r.Portfolio.Position("AAPL")
	require.True(t, ok)
	assert.True(t, d("2").Equal(pos.Quantity))
}

func TestRunner_Run_CloseAtEnd(t *testing.T) {
	t.Parallel()

	strat := &scriptedStrategy{script: map[int]market.Signal{1: market.SignalBuy}}
	r := newRunner(t, "1000", "1", strat, flatBars(100, 100, 105))
	r.Options.CloseAtEnd = true

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	last := res.Trades[1]
	assert.Equal(t, market.Sell, last.Side)
	assert.True(t, d("105").Equal(last.Price))
	assert.False(t, r.Portfolio.HasPositions())

	// n-1 bar snapshots plus the close-out snapshot.
	require.Len(t, res.EquityCurve, 3)
	assert.True(t, d("1008").Equal(res.Summary.EndEquity))
	assert.True(t, d("8").Equal(res.RealizedPnL[1].Decimal))
}

func TestRunner_Run_CloseAtEndFlat(t *testing.T) {
	t.Parallel()

	r := newRunner(t, "1000", "0", strategies.Noop{}, flatBars(1, 2, 3))
	r.Options.CloseAtEnd = true

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Len(t, res.EquityCurve, 2)
}

func TestRunner_Run_InsufficientFundsAborts(t *testing.T) {
	t.Parallel()

	strat := &scriptedStrategy{script: map[int]market.Signal{1: market.SignalBuy}}
	r := newRunner(t, "50", "0", strat, flatBars(100, 100, 100))
	r.Metrics = observability.NewRunMetrics("", "RUN1", "AAPL")

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, market.ErrInsufficientFunds)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.OrdersRejected.WithLabelValues("insufficient_funds")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.Metrics.TradesApplied.WithLabelValues("BUY")))
	assert.Empty(t, r.Portfolio.Trades())
}

func TestRunner_Run_Metrics(t *testing.T) {
	t.Parallel()

	strat := &scriptedStrategy{script: map[int]market.Signal{1: market.SignalBuy, 2: market.SignalSell}}
	r := newRunner(t, "1000", "1", strat, flatBars(10, 10, 10, 10))
	r.Metrics = observability.NewRunMetrics("", "RUN1", "AAPL")

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	m := r.Metrics
	assert.Equal(t, 3.0, testutil.ToFloat64(m.BarsProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersSubmitted.WithLabelValues("BUY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TradesApplied.WithLabelValues("SELL")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FeesPaid))
	assert.Equal(t, 998.0, testutil.ToFloat64(m.Equity))
}

func TestRunner_Run_StrategyError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	r := newRunner(t, "1000", "0", &scriptedStrategy{err: boom}, flatBars(1, 2))

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRunner_Run_JournalError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	strat := &scriptedStrategy{script: map[int]market.Signal{1: market.SignalBuy}}
	r := newRunner(t, "1000", "0", strat, flatBars(1, 2))
	r.Journal = &recordingJournal{err: boom}

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRunner_Run_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRunner(t, "1000", "0", strategies.Noop{}, flatBars(1, 2, 3))
	_, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_Run_GeneratesRunID(t *testing.T) {
	t.Parallel()

	r := newRunner(t, "1000", "0", strategies.Noop{}, flatBars(1, 2))
	r.RunID = ""

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.RunID, 26)
}

func TestResult_RunRecord(t *testing.T) {
	t.Parallel()

	strat := &scriptedStrategy{script: map[int]market.Signal{1: market.SignalBuy, 2: market.SignalSell}}
	r := newRunner(t, "1000", "0", strat, flatBars(10, 10, 12, 12))

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	created := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	rec := res.RunRecord(created, "bars.csv", []byte(`{"x":1}`))
	assert.Equal(t, "RUN1", rec.RunID)
	assert.Equal(t, "scripted", rec.Strategy)
	assert.Equal(t, "bars.csv", rec.Dataset)
	assert.Equal(t, 2, rec.Trades)
	assert.Equal(t, 1, rec.ClosedTrades)
	assert.Equal(t, 4, rec.Bars)
	assert.True(t, res.Summary.EndEquity.Equal(rec.EndEquity))
	assert.Equal(t, created, rec.Created)
}
