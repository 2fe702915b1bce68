package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rustyeddy/backtester/market/data"
	"github.com/spf13/cobra"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Inspect and convert bar files",
	Long: `Work with OHLCV bar files.

Subcommands:
  check <file>          - Load and validate a bar file
  convert <in> <out>    - Convert between .csv, .csv.xz and .parquet

Examples:
  backtester data check data/aapl.csv.xz
  backtester data convert data/aapl.csv data/aapl.parquet`,
}

var dataCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Load and validate a bar file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDataCheck,
}

var dataConvertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a bar file to CSV or Parquet",
	Args:  cobra.ExactArgs(2),
	RunE:  runDataConvert,
}

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataCheckCmd)
	dataCmd.AddCommand(dataConvertCmd)
}

func runDataCheck(cmd *cobra.Command, args []string) error {
	bars, err := data.Load(args[0])
	if err != nil {
		return err
	}

	first, last := bars[0], bars[len(bars)-1]
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ %s: %d bars\n", args[0], len(bars))
	fmt.Fprintf(out, "  From: %s  close %s\n", first.Time.Format("2006-01-02 15:04:05"), first.Close)
	fmt.Fprintf(out, "  To:   %s  close %s\n", last.Time.Format("2006-01-02 15:04:05"), last.Close)
	return nil
}

func runDataConvert(cmd *cobra.Command, args []string) error {
	in, outPath := args[0], args[1]
	bars, err := data.Load(in)
	if err != nil {
		return err
	}

	switch lower := strings.ToLower(outPath); {
	case strings.HasSuffix(lower, ".parquet"):
		if err := data.WriteParquet(outPath, bars); err != nil {
			return err
		}
	case strings.HasSuffix(lower, ".csv"):
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := data.WriteCSV(f, bars); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("convert: unsupported output %s (want .csv or .parquet)", outPath)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d bars to %s\n", len(bars), outPath)
	return nil
}
