package strategies

import "github.com/rustyeddy/backtester/market"

// OpenOnce buys on the first bar it sees and holds for the rest of the run.
// It is the buy-and-hold benchmark for the crossover rules.
type OpenOnce struct{}

func (*OpenOnce) Name() string { return "open-once" }

func (*OpenOnce) Decide(bars []market.Bar) (market.Signal, error) {
	if len(bars) == 0 {
		return market.Hold, nil
	}
	return market.SignalBuy, nil
}
