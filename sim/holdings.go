package sim

import (
	"sort"

	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
)

// holdings owns the open positions keyed by symbol. A position whose
// quantity reaches zero is removed, so presence always means quantity > 0.
type holdings struct {
	bySymbol map[string]market.Position
}

func newHoldings() *holdings {
	return &holdings{bySymbol: make(map[string]market.Position)}
}

func (h *holdings) get(symbol string) (market.Position, bool) {
	p, ok := h.bySymbol[symbol]
	return p, ok
}

func (h *holdings) put(p market.Position) {
	if !p.Quantity.IsPositive() {
		delete(h.bySymbol, p.Symbol)
		return
	}
	h.bySymbol[p.Symbol] = p
}

// add returns the position after buying qty at price, re-averaging the cost.
func (h *holdings) add(symbol string, qty, price decimal.Decimal) market.Position {
	cur, ok := h.get(symbol)
	if !ok {
		return market.Position{Symbol: symbol, Quantity: qty, AveragePrice: price}
	}
	newQty := cur.Quantity.Add(qty)
	avg := cur.AveragePrice.Mul(cur.Quantity).Add(price.Mul(qty)).Div(newQty)
	return market.Position{Symbol: symbol, Quantity: newQty, AveragePrice: avg}
}

// reduce returns the position after selling qty. The average price is kept.
func (h *holdings) reduce(cur market.Position, qty decimal.Decimal) market.Position {
	return market.Position{
		Symbol:       cur.Symbol,
		Quantity:     cur.Quantity.Sub(qty),
		AveragePrice: cur.AveragePrice,
	}
}

func (h *holdings) count() int { return len(h.bySymbol) }

// sorted returns a copy of all positions ordered by symbol.
func (h *holdings) sorted() []market.Position {
	out := make([]market.Position, 0, len(h.bySymbol))
	for _, p := range h.bySymbol {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
