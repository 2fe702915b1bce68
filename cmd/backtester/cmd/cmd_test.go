package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/market/data"
	"github.com/rustyeddy/backtester/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeBars(t *testing.T, path string, closes ...int64) {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		px := decimal.NewFromInt(c)
		bars[i] = market.Bar{Time: start.AddDate(0, 0, i), Open: px, High: px, Low: px, Close: px, Volume: 10}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, data.WriteCSV(f, bars))
	require.NoError(t, f.Close())
}

// The commands share package-level flag state, so this runs as one sequence.
func TestCLI(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "bars.csv")
	parquetPath := filepath.Join(dir, "bars.parquet")
	dbPath := filepath.Join(dir, "runs.sqlite")
	outDir := filepath.Join(dir, "output")

	writeBars(t, csvPath, 10, 10, 10, 20, 20, 5, 5, 5, 5)

	t.Run("version", func(t *testing.T) {
		out, err := execute(t, "version")
		require.NoError(t, err)
		assert.Contains(t, out, "backtester version")
	})

	t.Run("data check", func(t *testing.T) {
		out, err := execute(t, "data", "check", csvPath)
		require.NoError(t, err)
		assert.Contains(t, out, "9 bars")
	})

	t.Run("data convert", func(t *testing.T) {
		out, err := execute(t, "data", "convert", csvPath, parquetPath)
		require.NoError(t, err)
		assert.Contains(t, out, "Wrote 9 bars")

		_, err = execute(t, "data", "convert", csvPath, filepath.Join(dir, "bars.json"))
		assert.Error(t, err)
	})

	t.Run("config init and validate", func(t *testing.T) {
		cfgPath := filepath.Join(dir, "bt.yaml")
		out, err := execute(t, "config", "init", "-o", cfgPath)
		require.NoError(t, err)
		assert.Contains(t, out, "Created default configuration")

		out, err = execute(t, "config", "validate", "-f", cfgPath)
		require.NoError(t, err)
		assert.Contains(t, out, "Configuration valid")
	})

	var runID string

	t.Run("run", func(t *testing.T) {
		out, err := execute(t, "run",
			"--data", parquetPath,
			"--output", outDir,
			"--fast-window", "2",
			"--slow-window", "3",
			"--fee", "1",
			"--journal", "sqlite",
			"--db", dbPath,
			"--log-level", "error",
		)
		require.NoError(t, err)
		assert.Contains(t, out, "Backtest complete")
		assert.Contains(t, out, "Trades: 2")

		s, err := journal.NewSQLite(dbPath)
		require.NoError(t, err)
		defer s.Close()

		runs, err := s.ListRuns(context.Background())
		require.NoError(t, err)
		require.Len(t, runs, 1)
		runID = runs[0].RunID
		assert.Equal(t, "sma-cross", runs[0].Strategy)
		assert.Equal(t, 2, runs[0].Trades)

		runDir := report.RunDir(outDir, runID)
		for _, name := range []string{
			report.ConfigFile, report.MetricsFile, report.SummaryFile,
			report.OrgFile, report.PromFile, report.TradesFile, report.EquityFile,
			report.PlotFile,
		} {
			_, err := os.Stat(filepath.Join(runDir, name))
			assert.NoError(t, err, name)
		}
	})

	t.Run("run without plot", func(t *testing.T) {
		plainDir := filepath.Join(dir, "plain")
		_, err := execute(t, "run",
			"--data", parquetPath,
			"--output", plainDir,
			"--journal", "none",
			"--no-plot",
		)
		require.NoError(t, err)

		entries, err := os.ReadDir(plainDir)
		require.NoError(t, err)
		require.Len(t, entries, 1)

		runDir := filepath.Join(plainDir, entries[0].Name())
		_, err = os.Stat(filepath.Join(runDir, report.SummaryFile))
		assert.NoError(t, err)
		_, err = os.Stat(filepath.Join(runDir, report.PlotFile))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("run rejects bad flags", func(t *testing.T) {
		_, err := execute(t, "run", "--cash", "lots")
		assert.Error(t, err)
	})

	t.Run("journal queries", func(t *testing.T) {
		require.NotEmpty(t, runID)

		out, err := execute(t, "journal", "runs", "--db", dbPath)
		require.NoError(t, err)
		assert.Contains(t, out, runID)

		out, err = execute(t, "journal", "run", runID, "--db", dbPath)
		require.NoError(t, err)
		assert.Contains(t, out, ":RUN_ID:      "+runID)

		out, err = execute(t, "journal", "trades", runID, "--db", dbPath)
		require.NoError(t, err)
		assert.Contains(t, out, ":SIDE: BUY")
		assert.Contains(t, out, ":SIDE: SELL")

		out, err = execute(t, "journal", "equity", runID, "--db", dbPath)
		require.NoError(t, err)
		assert.Contains(t, out, "| Time | Cash | Positions | Equity |")

		_, err = execute(t, "journal", "run", "missing", "--db", dbPath)
		assert.Error(t, err)
	})
}
