package indicators

import (
	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
)

// SMA calculates the Simple Moving Average of the last period closes.
func SMA(bars []market.Bar, period int) (decimal.Decimal, error) {
	cs, err := closes(bars, period)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.Avg(cs[0], cs[1:]...), nil
}

// EMA calculates the Exponential Moving Average over all bars, seeded with
// the SMA of the first period closes.
func EMA(bars []market.Bar, period int) (decimal.Decimal, error) {
	if _, err := closes(bars, period); err != nil {
		return decimal.Zero, err
	}

	multiplier := decimal.NewFromInt(2).Div(decimal.NewFromInt(int64(period + 1)))

	ema, err := SMA(bars[:period], period)
	if err != nil {
		return decimal.Zero, err
	}
	for _, b := range bars[period:] {
		ema = b.Close.Sub(ema).Mul(multiplier).Add(ema)
	}
	return ema, nil
}
