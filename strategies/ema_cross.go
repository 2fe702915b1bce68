package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

// EMACross is the exponential moving average variant of SMACross.
// - Enters only on a bull cross
// - Exits on the opposite cross
type EMACross struct {
	Fast int
	Slow int
}

func NewEMACross(fast, slow int) (*EMACross, error) {
	if err := checkWindows(fast, slow); err != nil {
		return nil, fmt.Errorf("ema-cross: %w", err)
	}
	return &EMACross{Fast: fast, Slow: slow}, nil
}

func (s *EMACross) Name() string { return "ema-cross" }

func (s *EMACross) Decide(bars []market.Bar) (market.Signal, error) {
	return crossSignal(bars, s.Fast, s.Slow, indicators.EMA)
}
