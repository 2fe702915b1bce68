package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block suitable for
// pasting into a journal.
func FormatTradeOrg(t TradeRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** Trade: %s %s %s (%s)\n", t.Side, t.Quantity, t.Symbol, shortID(t.TradeID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.TradeID)
	fmt.Fprintf(&b, ":RUN_ID: %s\n", t.RunID)
	fmt.Fprintf(&b, ":TIME: %s\n", t.Time.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":SYMBOL: %s\n", t.Symbol)
	fmt.Fprintf(&b, ":SIDE: %s\n", t.Side)
	fmt.Fprintf(&b, ":QUANTITY: %s\n", t.Quantity)
	fmt.Fprintf(&b, ":PRICE: %s\n", t.Price)
	fmt.Fprintf(&b, ":FEE: %s\n", t.Fee)
	fmt.Fprintf(&b, ":SLIPPAGE: %s\n", t.Slippage)
	fmt.Fprintf(&b, ":NOTIONAL: %s\n", t.NotionalValue())
	if t.RealizedPnL.Valid {
		fmt.Fprintf(&b, ":REALIZED_PNL: %s\n", t.RealizedPnL.Decimal.StringFixed(2))
	}
	b.WriteString(":END:\n")
	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

// FormatRunsTable renders one Org table row per run.
func FormatRunsTable(runs []RunRecord) string {
	var b strings.Builder
	b.WriteString("| Run | Created | Strategy | Symbol | Bars | Trades | Return % | Max DD % | Sharpe |\n")
	b.WriteString("|-----+---------+----------+--------+------+--------+----------+----------+--------|\n")
	for _, r := range runs {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d | %d | %.2f | %.2f | %.3f |\n",
			r.RunID,
			r.Created.UTC().Format("2006-01-02 15:04"),
			r.Strategy,
			r.Symbol,
			r.Bars,
			r.Trades,
			r.TotalReturn.InexactFloat64()*100,
			r.MaxDrawdown*100,
			r.SharpeRatio,
		)
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
