package journal

import (
	"fmt"
	"io"
	"text/template"
	"time"
)

var runOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var runOrgTmpl = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// WriteRunOrg renders r as an Org-mode block.
func WriteRunOrg(w io.Writer, r RunRecord) error {
	if err := runOrgTmpl.Execute(w, r); err != nil {
		return fmt.Errorf("render run %s: %w", r.RunID, err)
	}
	return nil
}

const RunOrgTemplate = `* BACKTEST: {{.Strategy}} {{.Symbol}}
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:STRATEGY:    {{.Strategy}}
:SYMBOL:      {{.Symbol}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:BARS:        {{.Bars}}
:START_EQ:    {{.StartEquity.StringFixed 2}}
:END_EQ:      {{.EndEquity.StringFixed 2}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Total Return:     *{{printf "%.2f" (mul100 .TotalReturn.InexactFloat64)}}%*
- Max Drawdown:     *{{printf "%.2f" (mul100 .MaxDrawdown)}}%*
- Volatility:       *{{printf "%.4f" .AnnualisedVolatility}}*
- Sharpe:           *{{printf "%.4f" .SharpeRatio}}*
- Win Rate:         *{{printf "%.2f" (mul100 .WinRate)}}%*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Trades  | {{.Trades}} |
| Closed  | {{.ClosedTrades}} |
{{- if .Config }}

** Config
#+begin_src json
{{printf "%s" .Config}}
#+end_src
{{- end }}
`
