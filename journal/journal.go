// journal/journal.go
package journal

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RunRecord describes one completed backtest run.
type RunRecord struct {
	RunID    string
	Created  time.Time
	Strategy string
	Symbol   string
	Dataset  string
	Config   []byte // run config as JSON

	Start time.Time
	End   time.Time
	Bars  int

	Trades       int
	ClosedTrades int

	StartEquity decimal.Decimal
	EndEquity   decimal.Decimal
	TotalReturn decimal.Decimal

	AnnualisedVolatility float64
	MaxDrawdown          float64
	SharpeRatio          float64
	WinRate              float64
}

// TradeRecord is one executed trade. RealizedPnL is only valid for trades
// that reduce a position.
type TradeRecord struct {
	RunID       string
	TradeID     string
	Time        time.Time
	Symbol      string
	Side        string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Fee         decimal.Decimal
	Slippage    decimal.Decimal
	RealizedPnL decimal.NullDecimal
}

// NotionalValue is Quantity × Price.
func (t TradeRecord) NotionalValue() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}

// TransactionCost is Fee + Slippage.
func (t TradeRecord) TransactionCost() decimal.Decimal {
	return t.Fee.Add(t.Slippage)
}

// EquityRecord is one point of the equity curve.
type EquityRecord struct {
	RunID          string
	Time           time.Time
	Cash           decimal.Decimal
	PositionsValue decimal.Decimal
}

// Equity is Cash + PositionsValue.
func (e EquityRecord) Equity() decimal.Decimal {
	return e.Cash.Add(e.PositionsValue)
}

type Journal interface {
	RecordRun(ctx context.Context, r RunRecord) error
	RecordTrade(ctx context.Context, t TradeRecord) error
	RecordEquity(ctx context.Context, e EquityRecord) error
	Close() error
}

// Discard drops everything it is given.
type Discard struct{}

func (Discard) RecordRun(context.Context, RunRecord) error       { return nil }
func (Discard) RecordTrade(context.Context, TradeRecord) error   { return nil }
func (Discard) RecordEquity(context.Context, EquityRecord) error { return nil }
func (Discard) Close() error                                     { return nil }
