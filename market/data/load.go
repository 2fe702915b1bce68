// Package data loads OHLCV bars from disk and checks the sequence is usable
// for a replay: non-empty, unique timestamps, ascending order.
package data

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/rustyeddy/backtester/market"
)

// Load reads bars from path, picking the decoder from the file extension:
// .csv, .csv.xz or .parquet.
func Load(path string) ([]market.Bar, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}

	var (
		bars []market.Bar
		err  error
	)
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".csv.xz"):
		bars, err = LoadCSVXZ(path)
	case strings.HasSuffix(lower, ".csv"):
		bars, err = LoadCSV(path)
	case strings.HasSuffix(lower, ".parquet"):
		bars, err = LoadParquet(path)
	default:
		return nil, fmt.Errorf("load %s: unsupported file type (want .csv, .csv.xz or .parquet)", path)
	}
	if err != nil {
		return nil, err
	}
	return bars, nil
}

// ValidatePath checks that path exists and is a regular file.
func ValidatePath(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("file not found: %s: %w", path, err)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("path is not a file: %s", path)
	}
	return nil
}

// CheckSequence rejects an empty sequence, duplicate timestamps and bars
// that are not in ascending time order.
func CheckSequence(bars []market.Bar) error {
	if len(bars) == 0 {
		return fmt.Errorf("no bar data located: %w", market.ErrValidation)
	}
	seen := make(map[int64]struct{}, len(bars))
	for _, b := range bars {
		k := b.Time.UnixNano()
		if _, dup := seen[k]; dup {
			return fmt.Errorf("duplicate timestamps detected in input at %s: %w", b.Time, market.ErrValidation)
		}
		seen[k] = struct{}{}
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return fmt.Errorf("bars must be sorted by ascending timestamp (row %d): %w", i+2, market.ErrValidation)
		}
	}
	return nil
}
