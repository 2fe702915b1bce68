package metrics

import (
	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
)

// Summary collects every statistic for one run.
type Summary struct {
	TotalReturn          decimal.Decimal     `json:"total_return"`
	AnnualisedVolatility float64             `json:"annualised_volatility"`
	MaxDrawdown          float64             `json:"max_drawdown"`
	SharpeRatio          float64             `json:"sharpe_ratio"`
	WinRate              float64             `json:"win_rate"`
	AverageWin           decimal.NullDecimal `json:"average_win"`
	AverageLoss          decimal.NullDecimal `json:"average_loss"`
	ClosedTrades         int                 `json:"closed_trades"`
	StartEquity          decimal.Decimal     `json:"start_equity"`
	EndEquity            decimal.Decimal     `json:"end_equity"`
	PeriodsPerYear       int                 `json:"periods_per_year"`
}

// Compute evaluates every statistic over curve and the realized pnls.
func Compute(curve []market.Snapshot, pnls []decimal.Decimal, periodsPerYear int) (Summary, error) {
	total, err := TotalReturn(curve)
	if err != nil {
		return Summary{}, err
	}
	vol, err := AnnualisedVolatility(curve, periodsPerYear)
	if err != nil {
		return Summary{}, err
	}
	sharpe, err := SharpeRatio(curve, periodsPerYear)
	if err != nil {
		return Summary{}, err
	}
	win, loss := AverageWinLoss(pnls)

	return Summary{
		TotalReturn:          total,
		AnnualisedVolatility: vol,
		MaxDrawdown:          MaxDrawdown(curve),
		SharpeRatio:          sharpe,
		WinRate:              WinRate(pnls),
		AverageWin:           win,
		AverageLoss:          loss,
		ClosedTrades:         len(pnls),
		StartEquity:          curve[0].Equity(),
		EndEquity:            curve[len(curve)-1].Equity(),
		PeriodsPerYear:       periodsPerYear,
	}, nil
}

// Map returns the named statistics. Missing averages map to nil.
func (s Summary) Map() map[string]any {
	m := map[string]any{
		"total_return":          s.TotalReturn.String(),
		"annualised_volatility": s.AnnualisedVolatility,
		"max_drawdown":          s.MaxDrawdown,
		"sharpe_ratio":          s.SharpeRatio,
		"win_rate":              s.WinRate,
		"closed_trades":         s.ClosedTrades,
		"average_win":           nil,
		"average_loss":          nil,
	}
	if s.AverageWin.Valid {
		m["average_win"] = s.AverageWin.Decimal.String()
	}
	if s.AverageLoss.Valid {
		m["average_loss"] = s.AverageLoss.Decimal.String()
	}
	return m
}
