package data

import (
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
)

// BarRecord is the Parquet schema for bar files. Prices are stored as
// decimal strings so they round-trip exactly.
type BarRecord struct {
	Timestamp int64  `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      string `parquet:"open"`
	High      string `parquet:"high"`
	Low       string `parquet:"low"`
	Close     string `parquet:"close"`
	Volume    int64  `parquet:"volume"`
}

// LoadParquet reads bars from a Parquet file and runs CheckSequence.
func LoadParquet(path string) ([]market.Bar, error) {
	rows, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}

	bars := make([]market.Bar, 0, len(rows))
	for i, r := range rows {
		b, err := r.bar()
		if err != nil {
			return nil, fmt.Errorf("load %s: invalid data at row %d: %w", path, i+1, err)
		}
		bars = append(bars, b)
	}

	if err := CheckSequence(bars); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return bars, nil
}

// WriteParquet writes bars to path in the BarRecord layout.
func WriteParquet(path string, bars []market.Bar) error {
	records := make([]BarRecord, len(bars))
	for i, b := range bars {
		records[i] = BarRecord{
			Timestamp: b.Time.UnixMilli(),
			Open:      b.Open.String(),
			High:      b.High.String(),
			Low:       b.Low.String(),
			Close:     b.Close.String(),
			Volume:    b.Volume,
		}
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	return nil
}

func (r BarRecord) bar() (market.Bar, error) {
	var px [4]decimal.Decimal
	for i, s := range []string{r.Open, r.High, r.Low, r.Close} {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return market.Bar{}, fmt.Errorf("%w: %w", err, market.ErrValidation)
		}
		px[i] = v
	}
	return market.NewBar(time.UnixMilli(r.Timestamp).UTC(), px[0], px[1], px[2], px[3], r.Volume)
}
