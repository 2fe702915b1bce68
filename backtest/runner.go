package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rustyeddy/backtester/internal/logging"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/metrics"
	"github.com/rustyeddy/backtester/observability"
	"github.com/rustyeddy/backtester/pkg/id"
	"github.com/rustyeddy/backtester/sim"
	"github.com/rustyeddy/backtester/strategies"
	"github.com/shopspring/decimal"
)

// RunnerOptions controls how the backtest runner behaves.
type RunnerOptions struct {
	// If true, sell any open holding at the last bar's close after the loop.
	CloseAtEnd bool
}

// Runner replays Bars through Strategy, filling orders with Execution and
// booking them in Portfolio. Journal, Metrics and Logger are optional.
type Runner struct {
	Execution *sim.ExecutionModel
	Portfolio *sim.Portfolio
	Strategy  strategies.Strategy
	Bars      []market.Bar
	Symbol    string
	Quantity  decimal.Decimal

	// PeriodsPerYear annualises volatility and Sharpe. Zero means 252.
	PeriodsPerYear int

	Journal journal.Journal
	Metrics *observability.RunMetrics
	Logger  *slog.Logger
	Options RunnerOptions

	// RunID is generated when empty.
	RunID string
}

// Run executes the backtest loop. For each bar i from the second onwards:
//  1. ask the strategy about bars[:i]
//  2. buy Quantity when flat, or sell the whole holding, on its signal
//  3. fill the order on bars[i] and book the trade
//  4. mark the portfolio to bars[i].Close
//
// Any error aborts the run. ctx is checked between bars.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if err := r.check(); err != nil {
		return Result{}, err
	}
	if r.RunID == "" {
		r.RunID = id.New()
	}
	if r.Journal == nil {
		r.Journal = journal.Discard{}
	}
	if r.Logger == nil {
		r.Logger = logging.Discard()
	}
	ppy := r.PeriodsPerYear
	if ppy == 0 {
		ppy = metrics.DefaultPeriodsPerYear
	}

	log := r.Logger.With("run_id", r.RunID, "symbol", r.Symbol, "strategy", r.Strategy.Name())
	log.Info("backtest started", "bars", len(r.Bars))

	pnl := newPnLTracker()
	var realized []decimal.NullDecimal

	for i := 1; i < len(r.Bars); i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("backtest: stopped at bar %d: %w", i, err)
		}

		prev, bar := r.Bars[i-1], r.Bars[i]

		signal, err := r.Strategy.Decide(r.Bars[:i])
		if err != nil {
			return Result{}, fmt.Errorf("backtest: strategy %s at %s: %w", r.Strategy.Name(), prev.Time, err)
		}

		if order, ok := r.orderFor(signal, prev); ok {
			t, rp, err := r.fill(ctx, pnl, r.Execution, order, bar)
			if err != nil {
				return Result{}, err
			}
			realized = append(realized, rp)
			log.Debug("fill",
				"time", t.Time,
				"side", t.Side,
				"qty", t.Quantity,
				"price", t.Price,
				"fee", t.Fee,
				"slippage", t.Slippage,
			)
		}

		if err := r.mark(ctx, bar); err != nil {
			return Result{}, err
		}
		if r.Metrics != nil {
			r.Metrics.BarsProcessed.Inc()
		}
	}

	if r.Options.CloseAtEnd {
		rp, closed, err := r.closeOut(ctx, pnl)
		if err != nil {
			return Result{}, err
		}
		if closed {
			realized = append(realized, rp)
		}
	}

	curve := r.Portfolio.EquityCurve()
	summary, err := metrics.Compute(curve, ClosedPnLs(realized), ppy)
	if err != nil {
		return Result{}, fmt.Errorf("backtest: metrics: %w", err)
	}

	res := Result{
		RunID:       r.RunID,
		Strategy:    r.Strategy.Name(),
		Symbol:      r.Symbol,
		Start:       r.Bars[0].Time,
		End:         r.Bars[len(r.Bars)-1].Time,
		Bars:        len(r.Bars),
		Trades:      r.Portfolio.Trades(),
		EquityCurve: curve,
		RealizedPnL: realized,
		Summary:     summary,
	}

	log.Info("backtest finished",
		"trades", len(res.Trades),
		"closed_trades", summary.ClosedTrades,
		"end_equity", summary.EndEquity,
		"total_return", summary.TotalReturn,
	)
	return res, nil
}

func (r *Runner) check() error {
	if r.Execution == nil {
		return fmt.Errorf("backtest: Execution is required")
	}
	if r.Portfolio == nil {
		return fmt.Errorf("backtest: Portfolio is required")
	}
	if r.Strategy == nil {
		return fmt.Errorf("backtest: Strategy is required")
	}
	if r.Symbol == "" {
		return fmt.Errorf("backtest: Symbol is required")
	}
	if !r.Quantity.IsPositive() {
		return fmt.Errorf("backtest: Quantity must be positive, got %s: %w", r.Quantity, market.ErrConfig)
	}
	if r.PeriodsPerYear < 0 {
		return fmt.Errorf("backtest: PeriodsPerYear must be positive, got %d: %w", r.PeriodsPerYear, market.ErrConfig)
	}
	if len(r.Bars) < 2 {
		return fmt.Errorf("backtest: need at least 2 bars, got %d: %w", len(r.Bars), market.ErrDegenerateInput)
	}
	return nil
}

// orderFor turns a signal into an order stamped with the decision bar's time.
// Buys only open a flat book; sells always close the whole holding.
func (r *Runner) orderFor(signal market.Signal, decided market.Bar) (market.Order, bool) {
	pos, held := r.Portfolio.Position(r.Symbol)

	switch signal {
	case market.SignalBuy:
		if held {
			return market.Order{}, false
		}
		return market.Order{Time: decided.Time, Side: market.Buy, Quantity: r.Quantity, Symbol: r.Symbol}, true
	case market.SignalSell:
		if !held {
			return market.Order{}, false
		}
		return market.Order{Time: decided.Time, Side: market.Sell, Quantity: pos.Quantity, Symbol: r.Symbol}, true
	default:
		return market.Order{}, false
	}
}

// fill executes order on bar with model, books it and journals the trade.
func (r *Runner) fill(ctx context.Context, pnl *pnlTracker, model *sim.ExecutionModel, order market.Order, bar market.Bar) (market.Trade, decimal.NullDecimal, error) {
	if r.Metrics != nil {
		r.Metrics.OrdersSubmitted.WithLabelValues(order.Side.String()).Inc()
	}

	t, err := model.Execute(order, bar)
	if err != nil {
		r.reject(err)
		return market.Trade{}, decimal.NullDecimal{}, fmt.Errorf("backtest: execute %s at %s: %w", order.Side, bar.Time, err)
	}
	t.ID = id.At(t.Time)

	if err := r.Portfolio.ApplyTrade(t); err != nil {
		r.reject(err)
		return market.Trade{}, decimal.NullDecimal{}, fmt.Errorf("backtest: %w", err)
	}
	rp := pnl.apply(t)

	if r.Metrics != nil {
		r.Metrics.ObserveTrade(t.Side.String(), t.Fee, t.Slippage)
	}

	err = r.Journal.RecordTrade(ctx, journal.TradeRecord{
		RunID:       r.RunID,
		TradeID:     t.ID,
		Time:        t.Time,
		Symbol:      t.Symbol,
		Side:        t.Side.String(),
		Quantity:    t.Quantity,
		Price:       t.Price,
		Fee:         t.Fee,
		Slippage:    t.Slippage,
		RealizedPnL: rp,
	})
	if err != nil {
		return market.Trade{}, decimal.NullDecimal{}, fmt.Errorf("backtest: journal trade: %w", err)
	}
	return t, rp, nil
}

func (r *Runner) reject(err error) {
	if r.Metrics == nil {
		return
	}
	reason := "invalid"
	switch {
	case errors.Is(err, market.ErrInsufficientFunds):
		reason = "insufficient_funds"
	case errors.Is(err, market.ErrOversell):
		reason = "oversell"
	}
	r.Metrics.OrdersRejected.WithLabelValues(reason).Inc()
}

// mark snapshots the portfolio at bar's close and journals the snapshot.
func (r *Runner) mark(ctx context.Context, bar market.Bar) error {
	snap, err := r.Portfolio.MarkToMarket(bar.Time, map[string]decimal.Decimal{r.Symbol: bar.Close})
	if err != nil {
		return fmt.Errorf("backtest: mark to market at %s: %w", bar.Time, err)
	}
	if r.Metrics != nil {
		r.Metrics.ObserveSnapshot(snap.Cash, snap.Equity())
	}
	err = r.Journal.RecordEquity(ctx, journal.EquityRecord{
		RunID:          r.RunID,
		Time:           snap.Time,
		Cash:           snap.Cash,
		PositionsValue: snap.PositionsValue,
	})
	if err != nil {
		return fmt.Errorf("backtest: journal equity: %w", err)
	}
	return nil
}

// closeOut sells any remaining holding at the last bar's close, charged the
// same fee and slippage as every other fill, then appends one more snapshot
// at that bar's time.
func (r *Runner) closeOut(ctx context.Context, pnl *pnlTracker) (decimal.NullDecimal, bool, error) {
	pos, held := r.Portfolio.Position(r.Symbol)
	if !held {
		return decimal.NullDecimal{}, false, nil
	}

	last := r.Bars[len(r.Bars)-1]
	atClose, err := sim.NewExecutionModel(r.Execution.Fee(), r.Execution.SlippageBps(), sim.FillClose)
	if err != nil {
		return decimal.NullDecimal{}, false, err
	}

	order := market.Order{Time: last.Time, Side: market.Sell, Quantity: pos.Quantity, Symbol: r.Symbol}
	_, rp, err := r.fill(ctx, pnl, atClose, order, last)
	if err != nil {
		return decimal.NullDecimal{}, false, fmt.Errorf("backtest: close at end: %w", err)
	}
	if err := r.mark(ctx, last); err != nil {
		return decimal.NullDecimal{}, false, err
	}
	return rp, true, nil
}
