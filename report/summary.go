package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"
	"time"
)

const summaryTemplate = `# Backtest Summary

## Run Info
- Run ID: {{.RunID}}
- Generated: {{.Generated.Format "2006-01-02T15:04:05Z07:00"}}
- Strategy: {{.Strategy}}
- Symbol: {{.Symbol}}
{{- if .Dataset}}
- Dataset: {{.Dataset}}
{{- end}}
- Period: {{.Start.Format "2006-01-02"}} to {{.End.Format "2006-01-02"}}
- Bars: {{.Bars}}
- Snapshots: {{.Snapshots}}
- Trades: {{.Trades}}

## Config
{{- range .Config}}
- {{.Key}}: {{.Value}}
{{- else}}
_No config provided._
{{- end}}

## Metrics

| Metric | Value |
|---|---|
{{- range .Metrics}}
| {{.Key}} | {{.Value}} |
{{- end}}
{{- if .Snapshots}}

## Equity
- Start equity: {{.StartEquity}}
- End equity: {{.EndEquity}}
{{- end}}
`

var summaryTmpl = template.Must(template.New("summary").Parse(summaryTemplate))

type kv struct {
	Key   string
	Value string
}

type summaryView struct {
	RunID       string
	Generated   time.Time
	Strategy    string
	Symbol      string
	Dataset     string
	Start       time.Time
	End         time.Time
	Bars        int
	Snapshots   int
	Trades      int
	Config      []kv
	Metrics     []kv
	StartEquity string
	EndEquity   string
}

func writeSummary(w io.Writer, a Artifacts, cfgJSON []byte) error {
	cfg, err := flattenJSON(cfgJSON)
	if err != nil {
		return fmt.Errorf("report: flatten config: %w", err)
	}

	r := a.Result
	v := summaryView{
		RunID:       r.RunID,
		Generated:   a.Created,
		Strategy:    r.Strategy,
		Symbol:      r.Symbol,
		Dataset:     a.Dataset,
		Start:       r.Start,
		End:         r.End,
		Bars:        r.Bars,
		Snapshots:   len(r.EquityCurve),
		Trades:      len(r.Trades),
		Config:      cfg,
		Metrics:     sortedKV(r.Summary.Map()),
		StartEquity: r.Summary.StartEquity.String(),
		EndEquity:   r.Summary.EndEquity.String(),
	}
	if err := summaryTmpl.Execute(w, v); err != nil {
		return fmt.Errorf("report: render summary: %w", err)
	}
	return nil
}

// flattenJSON turns a JSON object into dotted key/value pairs sorted by key.
// A JSON null or non-object yields no pairs.
func flattenJSON(data []byte) ([]kv, error) {
	var root any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return nil, nil
	}
	flat := make(map[string]any)
	flatten("", obj, flat)
	return sortedKV(flat), nil
}

func flatten(prefix string, obj map[string]any, out map[string]any) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			flatten(key, child, out)
			continue
		}
		out[key] = v
	}
}

func sortedKV(m map[string]any) []kv {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]kv, len(keys))
	for i, k := range keys {
		out[i] = kv{Key: k, Value: formatValue(m[k])}
	}
	return out
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "n/a"
	case string:
		if x == "" {
			return `""`
		}
		return x
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", x), "0"), ".")
	default:
		return fmt.Sprint(x)
	}
}
