// journal/csv.go
package journal

import (
	"context"
	"encoding/csv"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

var (
	TradesHeader = []string{"timestamp", "symbol", "side", "quantity", "price", "fee", "slippage", "notional_value", "transaction_cost", "realized_pnl", "trade_id"}
	EquityHeader = []string{"timestamp", "cash", "positions_value", "equity"}
)

// CSVJournal writes trades and equity snapshots to two CSV files. Run
// records are not written; the report package exports those.
type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if err := writeHeaders(tw, ew); err != nil {
		tf.Close()
		ef.Close()
		return nil, err
	}

	return &CSVJournal{tw, ew, tf, ef}, nil
}

func writeHeaders(tw, ew *csv.Writer) error {
	if err := tw.Write(TradesHeader); err != nil {
		return err
	}
	if err := ew.Write(EquityHeader); err != nil {
		return err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return err
	}
	ew.Flush()
	return ew.Error()
}

func (j *CSVJournal) RecordRun(ctx context.Context, r RunRecord) error {
	return nil
}

func (j *CSVJournal) RecordTrade(ctx context.Context, t TradeRecord) error {
	err := j.trades.Write([]string{
		t.Time.Format(time.RFC3339),
		t.Symbol,
		t.Side,
		t.Quantity.String(),
		t.Price.String(),
		t.Fee.String(),
		t.Slippage.String(),
		t.NotionalValue().String(),
		t.TransactionCost().String(),
		nullString(t.RealizedPnL),
		t.TradeID,
	})
	if err != nil {
		return err
	}

	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(ctx context.Context, e EquityRecord) error {
	err := j.equity.Write([]string{
		e.Time.Format(time.RFC3339),
		e.Cash.String(),
		e.PositionsValue.String(),
		e.Equity().String(),
	})
	if err != nil {
		return err
	}

	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	if err := j.ef.Close(); err != nil {
		return err
	}
	return nil
}

func nullString(n decimal.NullDecimal) string {
	if !n.Valid {
		return ""
	}
	return n.Decimal.String()
}
