package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/shopspring/decimal"
	"github.com/ulikunitz/xz"
)

// RequiredColumns must all appear in a CSV header. Order does not matter
// and extra columns are ignored.
var RequiredColumns = []string{"timestamp", "open", "high", "low", "close", "volume"}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// LoadCSV reads bars from a plain CSV file.
func LoadCSV(path string) ([]market.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bars, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return bars, nil
}

// LoadCSVXZ reads bars from an xz compressed CSV file.
func LoadCSVXZ(path string) ([]market.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: open xz stream: %w", path, err)
	}
	bars, err := ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return bars, nil
}

// ReadCSV parses bars from r and runs CheckSequence on the result. Row
// numbers in errors count the header as row 1.
func ReadCSV(r io.Reader) ([]market.Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("no bar data located: %w", market.ErrValidation)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("missing required columns: %v: %w", missing, market.ErrValidation)
	}

	var bars []market.Bar
	row := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("invalid data at row %d: %w: %w", row, err, market.ErrValidation)
		}
		b, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("invalid data at row %d: %w", row, err)
		}
		bars = append(bars, b)
	}

	if err := CheckSequence(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

func parseRow(rec []string, cols map[string]int) (market.Bar, error) {
	field := func(name string) string {
		return strings.TrimSpace(rec[cols[name]])
	}

	ts, err := ParseTime(field("timestamp"))
	if err != nil {
		return market.Bar{}, fmt.Errorf("%w: %w", err, market.ErrValidation)
	}

	var px [4]decimal.Decimal
	for i, name := range []string{"open", "high", "low", "close"} {
		v, err := decimal.NewFromString(field(name))
		if err != nil {
			return market.Bar{}, fmt.Errorf("%s: %w: %w", name, err, market.ErrValidation)
		}
		px[i] = v
	}

	vol, err := strconv.ParseInt(field("volume"), 10, 64)
	if err != nil {
		return market.Bar{}, fmt.Errorf("volume: %w: %w", err, market.ErrValidation)
	}

	return market.NewBar(ts, px[0], px[1], px[2], px[3], vol)
}

// ParseTime accepts RFC 3339 and the common ISO 8601 date/time forms.
// Times without a zone are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// WriteCSV writes bars in the layout ReadCSV expects.
func WriteCSV(w io.Writer, bars []market.Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RequiredColumns); err != nil {
		return err
	}
	for _, b := range bars {
		err := cw.Write([]string{
			b.Time.Format(time.RFC3339),
			b.Open.String(),
			b.High.String(),
			b.Low.String(),
			b.Close.String(),
			strconv.FormatInt(b.Volume, 10),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
