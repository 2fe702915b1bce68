package strategies

import "github.com/rustyeddy/backtester/market"

// Noop always holds.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) Decide([]market.Bar) (market.Signal, error) {
	return market.Hold, nil
}
