package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "Bar-replay backtester with exact decimal accounting",
	Long: `Backtester replays historical OHLCV bars through a trading rule,
fills orders with configurable slippage and fees, keeps an exact decimal
ledger of cash and holdings, and reports return and risk statistics.

It provides tools for:
  - Running backtests from flags or a YAML/JSON config file
  - Exporting trades, equity curves, metrics and summaries per run
  - Journaling runs to SQLite or Postgres and querying them later
  - Converting bar files between CSV, CSV.xz and Parquet`,
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel a running backtest.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
