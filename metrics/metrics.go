// Package metrics derives return and risk statistics from an equity curve
// and from a sequence of realized per-trade P&L values.
//
// Return arithmetic is done in decimal. Only the outputs that need a square
// root (volatility, Sharpe) or are reported as plain ratios (drawdown, win
// rate) are float64.
package metrics

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
)

// DefaultPeriodsPerYear annualises daily bars.
const DefaultPeriodsPerYear = 252

// statsPrecision is the number of decimal places kept when dividing period
// returns and their moments. Cent moves on large equity give returns near
// 1e-10, which decimal's default of 16 places rounds away.
const statsPrecision = 40

// PeriodReturn is the simple return from the previous snapshot to the one
// stamped Time.
type PeriodReturn struct {
	Time   time.Time
	Return decimal.Decimal
}

// TotalReturn is (last - first) / first over the curve's equity.
func TotalReturn(curve []market.Snapshot) (decimal.Decimal, error) {
	if len(curve) == 0 {
		return decimal.Zero, fmt.Errorf("total return: equity curve does not contain any values: %w", market.ErrDegenerateInput)
	}
	first := curve[0].Equity()
	if first.IsZero() {
		return decimal.Zero, fmt.Errorf("total return: initial equity must be non-zero: %w", market.ErrDegenerateInput)
	}
	last := curve[len(curve)-1].Equity()
	return last.Sub(first).Div(first), nil
}

// ReturnsSeries returns one simple return per consecutive pair of snapshots.
// Fewer than two snapshots yields an empty series.
func ReturnsSeries(curve []market.Snapshot) ([]PeriodReturn, error) {
	if len(curve) < 2 {
		return []PeriodReturn{}, nil
	}
	out := make([]PeriodReturn, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity()
		if prev.IsZero() {
			return nil, fmt.Errorf("returns series: equity at %s is zero: %w",
				curve[i-1].Time.Format(time.RFC3339), market.ErrDegenerateInput)
		}
		cur := curve[i].Equity()
		out = append(out, PeriodReturn{Time: curve[i].Time, Return: cur.Sub(prev).DivRound(prev, statsPrecision)})
	}
	return out, nil
}

// AnnualisedVolatility is the population standard deviation of the period
// returns scaled by sqrt(periodsPerYear). No returns yields 0.
func AnnualisedVolatility(curve []market.Snapshot, periodsPerYear int) (float64, error) {
	if periodsPerYear <= 0 {
		return 0, fmt.Errorf("annualised volatility: periods per year must be positive, got %d: %w", periodsPerYear, market.ErrConfig)
	}
	rets, err := ReturnsSeries(curve)
	if err != nil {
		return 0, err
	}
	if len(rets) == 0 {
		return 0, nil
	}
	_, variance := moments(rets)
	return math.Sqrt(variance.InexactFloat64()) * math.Sqrt(float64(periodsPerYear)), nil
}

// MaxDrawdown is the most negative (equity - peak) / peak over the curve,
// where peak is the running maximum equity. Peaks that are not positive are
// skipped. The result is <= 0; an empty curve yields 0.
func MaxDrawdown(curve []market.Snapshot) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := curve[0].Equity()
	worst := decimal.Zero
	for _, s := range curve {
		eq := s.Equity()
		if eq.GreaterThan(peak) {
			peak = eq
		}
		if !peak.IsPositive() {
			continue
		}
		dd := eq.Sub(peak).DivRound(peak, statsPrecision)
		if dd.LessThan(worst) {
			worst = dd
		}
	}
	return worst.InexactFloat64()
}

// SharpeRatio is mean / stddev of the period returns scaled by
// sqrt(periodsPerYear), with a zero risk-free rate. It is 0 when there are
// no returns or their variance is exactly zero.
func SharpeRatio(curve []market.Snapshot, periodsPerYear int) (float64, error) {
	if periodsPerYear <= 0 {
		return 0, fmt.Errorf("sharpe ratio: periods per year must be positive, got %d: %w", periodsPerYear, market.ErrConfig)
	}
	rets, err := ReturnsSeries(curve)
	if err != nil {
		return 0, err
	}
	if len(rets) == 0 {
		return 0, nil
	}
	mean, variance := moments(rets)
	if variance.IsZero() {
		return 0, nil
	}
	sigma := math.Sqrt(variance.InexactFloat64())
	if sigma == 0 {
		return 0, nil
	}
	return mean.InexactFloat64() / sigma * math.Sqrt(float64(periodsPerYear)), nil
}

// moments returns the mean and population variance of rets.
func moments(rets []PeriodReturn) (mean, variance decimal.Decimal) {
	n := decimal.NewFromInt(int64(len(rets)))
	sum := decimal.Zero
	for _, r := range rets {
		sum = sum.Add(r.Return)
	}
	mean = sum.DivRound(n, statsPrecision)

	sq := decimal.Zero
	for _, r := range rets {
		dev := r.Return.Sub(mean)
		sq = sq.Add(dev.Mul(dev))
	}
	return mean, sq.DivRound(n, statsPrecision)
}

// WinRate is the share of pnls strictly greater than zero. Break-even
// trades count as non-wins. Empty input yields 0.
func WinRate(pnls []decimal.Decimal) float64 {
	if len(pnls) == 0 {
		return 0
	}
	wins := 0
	for _, p := range pnls {
		if p.IsPositive() {
			wins++
		}
	}
	return float64(wins) / float64(len(pnls))
}

// AverageWinLoss returns the mean of the strictly positive pnls and the mean
// of the strictly negative ones. A side with no values is returned with
// Valid set to false.
func AverageWinLoss(pnls []decimal.Decimal) (win, loss decimal.NullDecimal) {
	var wins, losses []decimal.Decimal
	for _, p := range pnls {
		switch {
		case p.IsPositive():
			wins = append(wins, p)
		case p.IsNegative():
			losses = append(losses, p)
		}
	}
	if len(wins) > 0 {
		win = decimal.NewNullDecimal(decimal.Avg(wins[0], wins[1:]...))
	}
	if len(losses) > 0 {
		loss = decimal.NewNullDecimal(decimal.Avg(losses[0], losses[1:]...))
	}
	return win, loss
}
