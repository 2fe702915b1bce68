package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
)

// SMACross signals BUY when the fast simple moving average crosses above the
// slow one and SELL when it crosses below.
type SMACross struct {
	Fast int
	Slow int
}

func NewSMACross(fast, slow int) (*SMACross, error) {
	if err := checkWindows(fast, slow); err != nil {
		return nil, fmt.Errorf("sma-cross: %w", err)
	}
	return &SMACross{Fast: fast, Slow: slow}, nil
}

func (s *SMACross) Name() string { return "sma-cross" }

func (s *SMACross) Decide(bars []market.Bar) (market.Signal, error) {
	return crossSignal(bars, s.Fast, s.Slow, indicators.SMA)
}

func checkWindows(fast, slow int) error {
	if fast <= 0 || slow <= 0 {
		return fmt.Errorf("windows must be > 0, got fast=%d slow=%d: %w", fast, slow, market.ErrConfig)
	}
	if fast >= slow {
		return fmt.Errorf("fast window must be < slow window, got fast=%d slow=%d: %w", fast, slow, market.ErrConfig)
	}
	return nil
}

type averager func([]market.Bar, int) (decimal.Decimal, error)

// crossSignal compares the fast/slow averages at the last bar with those one
// bar earlier. It needs slow+1 bars and holds until it has them.
func crossSignal(bars []market.Bar, fast, slow int, avg averager) (market.Signal, error) {
	if len(bars) < slow+1 {
		return market.Hold, nil
	}
	prev := bars[:len(bars)-1]

	fastPrev, err := avg(prev, fast)
	if err != nil {
		return market.Hold, err
	}
	slowPrev, err := avg(prev, slow)
	if err != nil {
		return market.Hold, err
	}
	fastNow, err := avg(bars, fast)
	if err != nil {
		return market.Hold, err
	}
	slowNow, err := avg(bars, slow)
	if err != nil {
		return market.Hold, err
	}

	switch {
	case fastPrev.LessThanOrEqual(slowPrev) && fastNow.GreaterThan(slowNow):
		return market.SignalBuy, nil
	case fastPrev.GreaterThanOrEqual(slowPrev) && fastNow.LessThan(slowNow):
		return market.SignalSell, nil
	default:
		return market.Hold, nil
	}
}
