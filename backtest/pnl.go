package backtest

import (
	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
)

// basis is the open quantity of one symbol and everything paid to acquire
// it: notional plus fees plus slippage.
type basis struct {
	qty  decimal.Decimal
	cost decimal.Decimal
}

// pnlTracker derives realized P&L from a trade log using average cost.
// Buys accumulate cost; each sell releases the proportional share of it.
type pnlTracker struct {
	open map[string]basis
}

func newPnLTracker() *pnlTracker {
	return &pnlTracker{open: make(map[string]basis)}
}

// apply books t and returns its realized P&L. Only sells realize anything;
// buys return an invalid NullDecimal.
func (p *pnlTracker) apply(t market.Trade) decimal.NullDecimal {
	b := p.open[t.Symbol]

	switch t.Side {
	case market.Buy:
		b.qty = b.qty.Add(t.Quantity)
		b.cost = b.cost.Add(t.NotionalValue()).Add(t.TransactionCost())
		p.open[t.Symbol] = b
		return decimal.NullDecimal{}

	case market.Sell:
		proceeds := t.NotionalValue().Sub(t.TransactionCost())

		var released decimal.Decimal
		switch {
		case !b.qty.IsPositive():
		case t.Quantity.GreaterThanOrEqual(b.qty):
			released = b.cost
		default:
			released = b.cost.Mul(t.Quantity).Div(b.qty)
		}

		b.qty = b.qty.Sub(t.Quantity)
		b.cost = b.cost.Sub(released)
		if b.qty.IsPositive() {
			p.open[t.Symbol] = b
		} else {
			delete(p.open, t.Symbol)
		}
		return decimal.NewNullDecimal(proceeds.Sub(released))
	}
	return decimal.NullDecimal{}
}

// RealizedPnL returns one entry per trade, in order. Entries for buys are
// invalid; entries for sells hold net proceeds minus the average cost of the
// quantity sold, with buy fees and slippage folded into that cost.
func RealizedPnL(trades []market.Trade) []decimal.NullDecimal {
	tr := newPnLTracker()
	out := make([]decimal.NullDecimal, len(trades))
	for i, t := range trades {
		out[i] = tr.apply(t)
	}
	return out
}

// ClosedPnLs keeps only the valid entries of pnls.
func ClosedPnLs(pnls []decimal.NullDecimal) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(pnls))
	for _, p := range pnls {
		if p.Valid {
			out = append(out, p.Decimal)
		}
	}
	return out
}
