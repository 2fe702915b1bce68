package sim

import (
	"fmt"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
)

// Portfolio is the ledger for a single run: cash, open positions, the
// append-only trade log and the equity curve. It is not safe for concurrent
// use; each run owns one.
type Portfolio struct {
	cash     decimal.Decimal
	holdings *holdings
	trades   []market.Trade
	curve    []market.Snapshot
}

func NewPortfolio(cash decimal.Decimal) (*Portfolio, error) {
	if cash.IsNegative() {
		return nil, fmt.Errorf("initial cash must be >= 0, got %s: %w", cash, market.ErrValidation)
	}
	return &Portfolio{
		cash:     cash,
		holdings: newHoldings(),
	}, nil
}

// ApplyTrade books t against the ledger. Either every effect is applied
// (cash, holding, trade log) or none is.
func (p *Portfolio) ApplyTrade(t market.Trade) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("apply trade: %w", err)
	}

	var (
		cash decimal.Decimal
		next market.Position
	)

	switch t.Side {
	case market.Buy:
		required := t.NotionalValue().Add(t.Fee).Add(t.Slippage)
		if p.cash.LessThan(required) {
			return fmt.Errorf("apply trade: buy %s %s needs %s, have %s: %w",
				t.Quantity, t.Symbol, required, p.cash, market.ErrInsufficientFunds)
		}
		cash = p.cash.Sub(required)
		next = p.holdings.add(t.Symbol, t.Quantity, t.Price)

	case market.Sell:
		cur, ok := p.holdings.get(t.Symbol)
		if !ok {
			return fmt.Errorf("apply trade: sell %s %s with no position: %w", t.Quantity, t.Symbol, market.ErrOversell)
		}
		if cur.Quantity.LessThan(t.Quantity) {
			return fmt.Errorf("apply trade: sell %s %s exceeds held %s: %w",
				t.Quantity, t.Symbol, cur.Quantity, market.ErrOversell)
		}
		cash = p.cash.Add(t.NotionalValue()).Sub(t.Fee).Sub(t.Slippage)
		next = p.holdings.reduce(cur, t.Quantity)

	default:
		return fmt.Errorf("apply trade: side %d: %w", int8(t.Side), market.ErrValidation)
	}

	p.cash = cash
	p.holdings.put(next)
	p.trades = append(p.trades, t)
	return nil
}

// MarkToMarket values every held position at prices and appends a snapshot
// stamped ts. A held symbol missing from prices fails without appending.
// Callers are responsible for passing non-decreasing timestamps.
func (p *Portfolio) MarkToMarket(ts time.Time, prices map[string]decimal.Decimal) (market.Snapshot, error) {
	value := decimal.Zero
	for _, pos := range p.holdings.sorted() {
		px, ok := prices[pos.Symbol]
		if !ok {
			return market.Snapshot{}, fmt.Errorf("mark to market: missing close price for symbol %s: %w", pos.Symbol, market.ErrValidation)
		}
		value = value.Add(pos.MarketValue(px))
	}

	snap := market.Snapshot{Time: ts, Cash: p.cash, PositionsValue: value}
	p.curve = append(p.curve, snap)
	return snap, nil
}

func (p *Portfolio) Cash() decimal.Decimal { return p.cash }

// Position returns the open position for symbol, if any.
func (p *Portfolio) Position(symbol string) (market.Position, bool) {
	return p.holdings.get(symbol)
}

// Positions returns the open positions ordered by symbol.
func (p *Portfolio) Positions() []market.Position {
	return p.holdings.sorted()
}

// HasPositions reports whether any position is open.
func (p *Portfolio) HasPositions() bool {
	return p.holdings.count() > 0
}

// Trades returns a copy of the trade log in application order.
func (p *Portfolio) Trades() []market.Trade {
	out := make([]market.Trade, len(p.trades))
	copy(out, p.trades)
	return out
}

// EquityCurve returns a copy of the snapshots in append order.
func (p *Portfolio) EquityCurve() []market.Snapshot {
	out := make([]market.Snapshot, len(p.curve))
	copy(out, p.curve)
	return out
}
