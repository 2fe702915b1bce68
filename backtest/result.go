package backtest

import (
	"time"

	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/metrics"
	"github.com/shopspring/decimal"
)

// Result is everything a finished run produced.
type Result struct {
	RunID       string
	Strategy    string
	Symbol      string
	Start       time.Time
	End         time.Time
	Bars        int
	Trades      []market.Trade
	EquityCurve []market.Snapshot
	RealizedPnL []decimal.NullDecimal // parallel to Trades
	Summary     metrics.Summary
}

// RunRecord converts r into the journal's run row. dataset and cfg describe
// where the bars came from and how the run was configured.
func (r Result) RunRecord(created time.Time, dataset string, cfg []byte) journal.RunRecord {
	return journal.RunRecord{
		RunID:                r.RunID,
		Created:              created,
		Strategy:             r.Strategy,
		Symbol:               r.Symbol,
		Dataset:              dataset,
		Config:               cfg,
		Start:                r.Start,
		End:                  r.End,
		Bars:                 r.Bars,
		Trades:               len(r.Trades),
		ClosedTrades:         r.Summary.ClosedTrades,
		StartEquity:          r.Summary.StartEquity,
		EndEquity:            r.Summary.EndEquity,
		TotalReturn:          r.Summary.TotalReturn,
		AnnualisedVolatility: r.Summary.AnnualisedVolatility,
		MaxDrawdown:          r.Summary.MaxDrawdown,
		SharpeRatio:          r.Summary.SharpeRatio,
		WinRate:              r.Summary.WinRate,
	}
}
