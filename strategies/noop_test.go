package strategies

import (
	"testing"

	"github.com/rustyeddy/backtester/market"
	"github.com/stretchr/testify/assert"
)

func TestNoopStrategy_Decide(t *testing.T) {
	strat := Noop{}

	// Noop should always hold and return no error
	sig, err := strat.Decide(barsFromCloses(1, 2, 3))
	assert.NoError(t, err)
	assert.Equal(t, market.Hold, sig)
}

func TestOpenOnce_Decide(t *testing.T) {
	strat := &OpenOnce{}

	sig, err := strat.Decide(nil)
	assert.NoError(t, err)
	assert.Equal(t, market.Hold, sig)

	sig, err = strat.Decide(barsFromCloses(10))
	assert.NoError(t, err)
	assert.Equal(t, market.SignalBuy, sig)
}
