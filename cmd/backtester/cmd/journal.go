package cmd

import (
	"context"
	"fmt"

	"github.com/rustyeddy/backtester/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded backtest runs",
	Long: `Query runs, trades and equity curves recorded by the SQLite or
Postgres journal.

Subcommands:
  runs              - List every recorded run
  run <run-id>      - Show one run as an Org-mode block
  trades <run-id>   - List the trades of a run
  equity <run-id>   - Print the equity curve of a run

Examples:
  backtester journal runs --db runs.sqlite
  backtester journal trades 01J2... --dsn postgres://localhost/backtests`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List every recorded run",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalRunCmd = &cobra.Command{
	Use:   "run <run-id>",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalRun,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades <run-id>",
	Short: "List the trades of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrades,
}

var journalEquityCmd = &cobra.Command{
	Use:   "equity <run-id>",
	Short: "Print the equity curve of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalEquity,
}

var (
	journalDBPath string
	journalDSN    string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalRunCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalEquityCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./backtest.sqlite", "path to SQLite journal DB")
	journalCmd.PersistentFlags().StringVar(&journalDSN, "dsn", "", "Postgres DSN; takes precedence over --db")
}

func openStore(ctx context.Context) (journal.Store, error) {
	if journalDSN != "" {
		return journal.NewPostgres(ctx, journalDSN)
	}
	return journal.NewSQLite(journalDBPath)
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer s.Close()

	runs, err := s.ListRuns(cmd.Context())
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), journal.FormatRunsTable(runs))
	return nil
}

func runJournalRun(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer s.Close()

	rec, err := s.GetRun(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}

	return journal.WriteRunOrg(cmd.OutOrStdout(), rec)
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer s.Close()

	recs, err := s.ListTradesByRun(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}

func runJournalEquity(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer s.Close()

	recs, err := s.ListEquityByRun(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("query equity: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "| Time | Cash | Positions | Equity |")
	fmt.Fprintln(out, "|------+------+-----------+--------|")
	for _, e := range recs {
		fmt.Fprintf(out, "| %s | %s | %s | %s |\n",
			e.Time.UTC().Format("2006-01-02 15:04"),
			e.Cash.StringFixed(2),
			e.PositionsValue.StringFixed(2),
			e.Equity().StringFixed(2),
		)
	}
	return nil
}
