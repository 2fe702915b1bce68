// Package indicators provides moving averages over bar closes.
//
// Every function is pure and takes the full history; callers pass the bars
// they want evaluated and get the value at the last bar.
package indicators

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
)

// closes returns the last n closing prices.
func closes(bars []market.Bar, n int) ([]decimal.Decimal, error) {
	if n <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", n)
	}
	if len(bars) < n {
		return nil, fmt.Errorf("not enough bars: need %d, got %d", n, len(bars))
	}
	out := make([]decimal.Decimal, n)
	for i, b := range bars[len(bars)-n:] {
		out[i] = b.Close
	}
	return out, nil
}
