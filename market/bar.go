package market

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one OHLCV observation for a fixed interval.
type Bar struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// NewBar builds a Bar and checks its price invariants.
func NewBar(ts time.Time, o, h, l, c decimal.Decimal, volume int64) (Bar, error) {
	b := Bar{Time: ts, Open: o, High: h, Low: l, Close: c, Volume: volume}
	if err := b.Validate(); err != nil {
		return Bar{}, err
	}
	return b, nil
}

// Validate checks that prices are positive, the high and low bracket open
// and close, and volume is not negative.
func (b Bar) Validate() error {
	for _, p := range []decimal.Decimal{b.Open, b.High, b.Low, b.Close} {
		if !p.IsPositive() {
			return fmt.Errorf("bar %s: prices must be positive: %w", b.Time.Format(time.RFC3339), ErrValidation)
		}
	}
	if b.High.LessThan(decimal.Max(b.Open, b.Close)) {
		return fmt.Errorf("bar %s: high must be >= open and close: %w", b.Time.Format(time.RFC3339), ErrValidation)
	}
	if b.Low.GreaterThan(decimal.Min(b.Open, b.Close)) {
		return fmt.Errorf("bar %s: low must be <= open and close: %w", b.Time.Format(time.RFC3339), ErrValidation)
	}
	if b.High.LessThan(b.Low) {
		return fmt.Errorf("bar %s: high must be >= low: %w", b.Time.Format(time.RFC3339), ErrValidation)
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar %s: volume cannot be negative: %w", b.Time.Format(time.RFC3339), ErrValidation)
	}
	return nil
}
