// Package report writes the artifacts of a finished run into its own
// directory under the output root.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/observability"
)

// File names inside a run directory.
const (
	ConfigFile  = "config.json"
	MetricsFile = "metrics.json"
	SummaryFile = "summary.md"
	OrgFile     = "summary.org"
	PromFile    = "metrics.prom"
	TradesFile  = "trades.csv"
	EquityFile  = "equity_curve.csv"
)

// Artifacts is what Export writes. Config is any JSON-marshalable value;
// Metrics is optional. Plot adds equity_curve.png.
type Artifacts struct {
	Result  backtest.Result
	Config  any
	Dataset string
	Created time.Time
	Metrics *observability.RunMetrics
	Plot    bool
}

// RunDir returns the directory a run's artifacts live in.
func RunDir(root, runID string) string {
	return filepath.Join(root, "run_"+runID)
}

// Prepare creates the run directory for runID under root. It fails if the
// directory already exists, so two runs never share one.
func Prepare(root, runID string) (string, error) {
	if runID == "" {
		return "", errors.New("report: run id is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("report: create output root: %w", err)
	}
	dir := RunDir(root, runID)
	if err := os.Mkdir(dir, 0755); err != nil {
		return "", fmt.Errorf("report: create run directory: %w", err)
	}
	return dir, nil
}

// Export writes config.json, metrics.json, summary.md, summary.org and,
// when metrics were collected, metrics.prom into run_<RunID> under root.
// With a.Plot set it also draws equity_curve.png.
// The directory is created if Prepare has not already done so.
func Export(root string, a Artifacts) (string, error) {
	if a.Result.RunID == "" {
		return "", errors.New("report: run id is required")
	}
	if a.Created.IsZero() {
		a.Created = time.Now().UTC()
	}

	dir := RunDir(root, a.Result.RunID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("report: create run directory: %w", err)
	}

	cfg, err := json.MarshalIndent(a.Config, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: marshal config: %w", err)
	}
	if err := writeFile(dir, ConfigFile, append(cfg, '\n')); err != nil {
		return "", err
	}

	// map keys come out sorted
	m, err := json.MarshalIndent(a.Result.Summary.Map(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: marshal metrics: %w", err)
	}
	if err := writeFile(dir, MetricsFile, append(m, '\n')); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := writeSummary(&buf, a, cfg); err != nil {
		return "", err
	}
	if err := writeFile(dir, SummaryFile, buf.Bytes()); err != nil {
		return "", err
	}

	buf.Reset()
	if err := journal.WriteRunOrg(&buf, a.Result.RunRecord(a.Created, a.Dataset, cfg)); err != nil {
		return "", err
	}
	if err := writeFile(dir, OrgFile, buf.Bytes()); err != nil {
		return "", err
	}

	if a.Metrics != nil {
		if err := a.Metrics.WriteTextfile(filepath.Join(dir, PromFile)); err != nil {
			return "", fmt.Errorf("report: %w", err)
		}
	}

	if a.Plot {
		title := fmt.Sprintf("%s %s equity", a.Result.Strategy, a.Result.Symbol)
		if err := PlotEquity(filepath.Join(dir, PlotFile), title, a.Result.EquityCurve); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func writeFile(dir, name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return fmt.Errorf("report: write %s: %w", name, err)
	}
	return nil
}
