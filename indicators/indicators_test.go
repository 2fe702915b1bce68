package indicators

import (
	"testing"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBars(closes ...int64) []market.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		px := decimal.NewFromInt(c)
		bars[i] = market.Bar{Time: start.AddDate(0, 0, i), Open: px, High: px, Low: px, Close: px}
	}
	return bars
}

func TestSMA(t *testing.T) {
	bars := createTestBars(102, 105, 106, 108, 110, 111, 113, 114, 116, 118)

	ma, err := SMA(bars, 5)
	require.NoError(t, err)
	// Last 5 closes: 111,113,114,116,118 => 572/5 = 114.4
	assert.True(t, ma.Equal(decimal.RequireFromString("114.4")), "sma %s", ma)
}

func TestSMA_Errors(t *testing.T) {
	bars := createTestBars(1, 2, 3)

	_, err := SMA(bars, 0)
	assert.ErrorContains(t, err, "period must be positive")

	_, err = SMA(bars, 4)
	assert.ErrorContains(t, err, "not enough bars")
}

func TestEMA(t *testing.T) {
	bars := createTestBars(10, 10, 10, 20)

	// seed SMA(3) = 10, multiplier = 0.5 => 10 + (20-10)*0.5 = 15
	ema, err := EMA(bars, 3)
	require.NoError(t, err)
	assert.True(t, ema.Equal(decimal.NewFromInt(15)), "ema %s", ema)

	_, err = EMA(bars, 5)
	assert.Error(t, err)
}
