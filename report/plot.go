package report

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/backtester/market"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotFile is the equity chart written when plotting is enabled.
const PlotFile = "equity_curve.png"

// PlotEquity draws equity over time and saves it to path. The image format
// follows the file extension.
func PlotEquity(path, title string, curve []market.Snapshot) error {
	if len(curve) == 0 {
		return errors.New("report: plot: equity curve is empty")
	}

	pts := make(plotter.XYs, len(curve))
	for i, s := range curve {
		pts[i].X = float64(s.Time.Unix())
		pts[i].Y = s.Equity().InexactFloat64()
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Equity"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("report: plot: %w", err)
	}
	p.Add(line)

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("report: plot: %w", err)
	}
	return nil
}
