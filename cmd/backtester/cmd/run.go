package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/internal/logging"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market/data"
	"github.com/rustyeddy/backtester/observability"
	"github.com/rustyeddy/backtester/pkg/id"
	"github.com/rustyeddy/backtester/report"
	"github.com/rustyeddy/backtester/sim"
	"github.com/rustyeddy/backtester/strategies"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest over a bar file",
	Long: `Replay OHLCV bars through a strategy and export the results.

Settings come from --config (YAML or JSON) when given, otherwise from the
defaults. BACKTEST_* environment variables override the file and flags
override both.

Each run writes into <output>/run_<id>/:
  config.json, metrics.json, summary.md, summary.org, metrics.prom
  equity_curve.png (unless --no-plot)
  trades.csv and equity_curve.csv (unless --journal none)

Example:
  backtester run --data data/aapl.csv --cash 10000 --fast-window 5 --slow-window 10
  backtester run --config backtest.yaml --journal sqlite --db runs.sqlite`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

var (
	runConfigPath string
	runDataPath   string
	runCash       string
	runSymbol     string
	runQuantity   string
	runSlippage   string
	runFee        string
	runFillOn     string
	runStrategy   string
	runFast       int
	runSlow       int
	runPeriods    int
	runOutput     string
	runCloseEnd   bool
	runNoPlot     bool
	runJournal    string
	runDBPath     string
	runDSN        string
	runLogLevel   string
	runLogFormat  string
)

func init() {
	rootCmd.AddCommand(runCmd)

	def := config.Default()
	f := runCmd.Flags()

	f.StringVarP(&runConfigPath, "config", "c", "", "path to YAML or JSON config file")
	f.StringVar(&runDataPath, "data", def.Data.Path, "bar file (.csv, .csv.xz or .parquet)")
	f.StringVar(&runCash, "cash", def.Account.Cash.String(), "starting cash")
	f.StringVar(&runSymbol, "symbol", def.Strategy.Symbol, "symbol to trade")
	f.StringVar(&runQuantity, "quantity", def.Strategy.Quantity.String(), "quantity per buy order")
	f.StringVar(&runSlippage, "slippage-bps", def.Execution.SlippageBps.String(), "slippage in basis points")
	f.StringVar(&runFee, "fee", def.Execution.FeePerTrade.String(), "flat fee per trade")
	f.StringVar(&runFillOn, "fill-trade-on", def.Execution.FillOn, "fill price: open or close")
	f.StringVarP(&runStrategy, "strategy", "s", def.Strategy.Name, "strategy name (sma-cross, ema-cross, open-once, noop)")
	f.IntVar(&runFast, "fast-window", def.Strategy.FastWindow, "fast moving average window")
	f.IntVar(&runSlow, "slow-window", def.Strategy.SlowWindow, "slow moving average window")
	f.IntVar(&runPeriods, "periods-per-year", def.Metrics.PeriodsPerYear, "bars per year, for annualising")
	f.StringVarP(&runOutput, "output", "o", def.Output.Dir, "output root directory")
	f.BoolVar(&runCloseEnd, "close-at-end", def.Output.CloseAtEnd, "sell any open holding at the last close")
	f.BoolVar(&runNoPlot, "no-plot", def.Output.NoPlot, "skip equity_curve.png")
	f.StringVar(&runJournal, "journal", def.Journal.Type, "journal: none, csv, sqlite or postgres")
	f.StringVarP(&runDBPath, "db", "d", "", "SQLite journal path (with --journal sqlite)")
	f.StringVar(&runDSN, "dsn", "", "Postgres DSN (with --journal postgres)")
	f.StringVar(&runLogLevel, "log-level", def.Logging.Level, "log level: debug, info, warn, error")
	f.StringVar(&runLogFormat, "log-format", def.Logging.Format, "log format: text or json")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd.Flags())
	if err != nil {
		return err
	}

	log := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	bars, err := data.Load(cfg.Data.Path)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}

	strat, err := strategies.ByName(cfg.Strategy.Name, cfg.StrategyParams())
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	exec, err := cfg.ExecutionModel()
	if err != nil {
		return fmt.Errorf("execution: %w", err)
	}
	pf, err := sim.NewPortfolio(cfg.Account.Cash)
	if err != nil {
		return fmt.Errorf("portfolio: %w", err)
	}

	runID := id.New()
	runDir, err := report.Prepare(cfg.Output.Dir, runID)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	j, err := openJournal(ctx, cfg, runDir)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	rm := observability.NewRunMetrics("", runID, cfg.Strategy.Symbol)

	runner := &backtest.Runner{
		Execution:      exec,
		Portfolio:      pf,
		Strategy:       strat,
		Bars:           bars,
		Symbol:         cfg.Strategy.Symbol,
		Quantity:       cfg.Strategy.Quantity,
		PeriodsPerYear: cfg.Metrics.PeriodsPerYear,
		Journal:        j,
		Metrics:        rm,
		Logger:         log,
		Options:        backtest.RunnerOptions{CloseAtEnd: cfg.Output.CloseAtEnd},
		RunID:          runID,
	}

	res, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	created := time.Now().UTC()
	if err := j.RecordRun(ctx, res.RunRecord(created, cfg.Data.Path, cfgJSON)); err != nil {
		return fmt.Errorf("journal run: %w", err)
	}

	dir, err := report.Export(cfg.Output.Dir, report.Artifacts{
		Result:  res,
		Config:  cfg,
		Dataset: cfg.Data.Path,
		Created: created,
		Metrics: rm,
		Plot:    !cfg.Output.NoPlot,
	})
	if err != nil {
		return err
	}

	s := res.Summary
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Backtest complete: %s\n", res.RunID)
	fmt.Fprintf(out, "  Bars: %d  Trades: %d  Closed: %d\n", res.Bars, len(res.Trades), s.ClosedTrades)
	fmt.Fprintf(out, "  Equity: %s -> %s\n", s.StartEquity.StringFixed(2), s.EndEquity.StringFixed(2))
	fmt.Fprintf(out, "  Total Return: %s%%\n", s.TotalReturn.Shift(2).StringFixed(2))
	fmt.Fprintf(out, "  Max Drawdown: %.2f%%\n", s.MaxDrawdown*100)
	fmt.Fprintf(out, "  Volatility: %.4f  Sharpe: %.4f\n", s.AnnualisedVolatility, s.SharpeRatio)
	fmt.Fprintf(out, "  Output: %s\n", dir)
	return nil
}

// loadRunConfig layers defaults, the config file, the environment and any
// flags the user set, then validates the result.
func loadRunConfig(flags *pflag.FlagSet) (*config.Config, error) {
	var cfg *config.Config
	if runConfigPath != "" {
		loaded, err := config.LoadFromFile(runConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
		cfg.ApplyEnv()
	}

	decimals := []struct {
		flag string
		val  string
		dst  *decimal.Decimal
	}{
		{"cash", runCash, &cfg.Account.Cash},
		{"quantity", runQuantity, &cfg.Strategy.Quantity},
		{"slippage-bps", runSlippage, &cfg.Execution.SlippageBps},
		{"fee", runFee, &cfg.Execution.FeePerTrade},
	}
	for _, d := range decimals {
		if !flags.Changed(d.flag) {
			continue
		}
		v, err := decimal.NewFromString(d.val)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", d.flag, err)
		}
		*d.dst = v
	}

	if flags.Changed("data") {
		cfg.Data.Path = runDataPath
	}
	if flags.Changed("symbol") {
		cfg.Strategy.Symbol = runSymbol
	}
	if flags.Changed("fill-trade-on") {
		cfg.Execution.FillOn = runFillOn
	}
	if flags.Changed("strategy") {
		cfg.Strategy.Name = runStrategy
	}
	if flags.Changed("fast-window") {
		cfg.Strategy.FastWindow = runFast
	}
	if flags.Changed("slow-window") {
		cfg.Strategy.SlowWindow = runSlow
	}
	if flags.Changed("periods-per-year") {
		cfg.Metrics.PeriodsPerYear = runPeriods
	}
	if flags.Changed("output") {
		cfg.Output.Dir = runOutput
	}
	if flags.Changed("close-at-end") {
		cfg.Output.CloseAtEnd = runCloseEnd
	}
	if flags.Changed("no-plot") {
		cfg.Output.NoPlot = runNoPlot
	}
	if flags.Changed("journal") {
		cfg.Journal.Type = runJournal
	}
	if flags.Changed("db") {
		cfg.Journal.DBPath = runDBPath
	}
	if flags.Changed("dsn") {
		cfg.Journal.DSN = runDSN
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = runLogLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = runLogFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openJournal builds the journal for cfg.Journal.Type. Every type except
// "none" writes trades.csv and equity_curve.csv into runDir; sqlite and
// postgres also record to the database.
func openJournal(ctx context.Context, cfg *config.Config, runDir string) (journal.Journal, error) {
	if cfg.Journal.Type == "none" {
		return journal.Discard{}, nil
	}

	csvJ, err := journal.NewCSV(
		filepath.Join(runDir, report.TradesFile),
		filepath.Join(runDir, report.EquityFile),
	)
	if err != nil {
		return nil, err
	}

	switch cfg.Journal.Type {
	case "sqlite":
		if dir := filepath.Dir(cfg.Journal.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				csvJ.Close()
				return nil, err
			}
		}
		db, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			csvJ.Close()
			return nil, err
		}
		return journal.Multi{csvJ, db}, nil
	case "postgres":
		db, err := journal.NewPostgres(ctx, cfg.Journal.DSN)
		if err != nil {
			csvJ.Close()
			return nil, err
		}
		return journal.Multi{csvJ, db}, nil
	default:
		return csvJ, nil
	}
}
