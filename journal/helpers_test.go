package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	testOpen  = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	testClose = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
)

func sampleTrades(runID string) []TradeRecord {
	return []TradeRecord{
		{
			RunID:    runID,
			TradeID:  runID + "-T1",
			Time:     testOpen,
			Symbol:   "AAPL",
			Side:     "BUY",
			Quantity: d("2"),
			Price:    d("100.5"),
			Fee:      d("1"),
			Slippage: d("1.0"),
		},
		{
			RunID:       runID,
			TradeID:     runID + "-T2",
			Time:        testClose,
			Symbol:      "AAPL",
			Side:        "SELL",
			Quantity:    d("2"),
			Price:       d("119.4"),
			Fee:         d("1"),
			Slippage:    d("1.2"),
			RealizedPnL: decimal.NewNullDecimal(d("33.6")),
		},
	}
}

func sampleEquity(runID string) []EquityRecord {
	return []EquityRecord{
		{RunID: runID, Time: testOpen, Cash: d("9797"), PositionsValue: d("204")},
		{RunID: runID, Time: testClose, Cash: d("10033.6"), PositionsValue: decimal.Zero},
	}
}

func sampleRun(runID string) RunRecord {
	return RunRecord{
		RunID:                runID,
		Created:              time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
		Strategy:             "sma-cross",
		Symbol:               "AAPL",
		Dataset:              "bars.csv",
		Config:               []byte(`{"symbol":"AAPL"}`),
		Start:                testOpen,
		End:                  testClose,
		Bars:                 4,
		Trades:               2,
		ClosedTrades:         1,
		StartEquity:          d("10001"),
		EndEquity:            d("10033.6"),
		TotalReturn:          d("0.00326"),
		AnnualisedVolatility: 0.12,
		MaxDrawdown:          -0.05,
		SharpeRatio:          1.5,
		WinRate:              1,
	}
}
