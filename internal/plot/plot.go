// Package plot renders experiment series to image files with gonum/plot.
// The output format follows the file extension (png, svg, pdf, ...).
package plot

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	gonum "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Series is one labelled line. X and Y must have the same length.
type Series struct {
	Label string
	X     []float64
	Y     []float64
}

func (s Series) Len() int { return len(s.X) }

type Options struct {
	Title  string
	XLabel string
	YLabel string

	// Step draws a post-step line without point markers (cwnd traces).
	Step bool
	// LogX uses a base-10 x axis; it is ignored when there is nothing to
	// draw or some x is not positive.
	LogX bool
	// YFromZero pins the y axis at 0.
	YFromZero bool
	// XTicks replaces the default x tick marks when non-empty and there is data.
	XTicks []float64

	Width  vg.Length
	Height vg.Length
}

const (
	defaultWidth  = 10 * vg.Inch
	defaultHeight = 7 * vg.Inch
)

// Save draws series into path, creating the parent directory. Empty series
// are left out of the plot and the legend.
func Save(path string, opt Options, series []Series) error {
	p := gonum.New()
	p.Title.Text = opt.Title
	p.X.Label.Text = opt.XLabel
	p.Y.Label.Text = opt.YLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	points := 0
	minX, maxX := math.Inf(1), math.Inf(-1)
	for i, s := range series {
		if s.Len() == 0 {
			continue
		}
		if len(s.Y) != len(s.X) {
			return fmt.Errorf("series %q: %d x values but %d y values", s.Label, len(s.X), len(s.Y))
		}
		points += s.Len()
		for _, x := range s.X {
			minX = math.Min(minX, x)
			maxX = math.Max(maxX, x)
		}

		xys := make(plotter.XYs, s.Len())
		for j := range s.X {
			xys[j].X = s.X[j]
			xys[j].Y = s.Y[j]
		}

		if opt.Step {
			l, err := plotter.NewLine(xys)
			if err != nil {
				return fmt.Errorf("series %q: %w", s.Label, err)
			}
			l.StepStyle = plotter.PostStep
			l.LineStyle.Color = plotutil.Color(i)
			l.LineStyle.Width = vg.Points(1)
			p.Add(l)
			p.Legend.Add(s.Label, l)
			continue
		}

		l, sc, err := plotter.NewLinePoints(xys)
		if err != nil {
			return fmt.Errorf("series %q: %w", s.Label, err)
		}
		l.LineStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Shape = plotutil.Shape(i)
		p.Add(l, sc)
		p.Legend.Add(s.Label, l, sc)
	}

	// A log axis needs a strictly positive, non-degenerate range; gonum
	// widens a single value by ±1, which can cross zero.
	if opt.LogX && points > 0 && minX > 0 {
		p.X.Scale = gonum.LogScale{}
		p.X.Tick.Marker = gonum.LogTicks{Prec: -1}
		if minX == maxX {
			p.X.Min, p.X.Max = minX/10, maxX*10
		}
	}
	if len(opt.XTicks) > 0 && points > 0 {
		ticks := make([]gonum.Tick, 0, len(opt.XTicks))
		for _, v := range opt.XTicks {
			ticks = append(ticks, gonum.Tick{Value: v, Label: strconv.FormatFloat(v, 'g', -1, 64)})
		}
		p.X.Tick.Marker = gonum.ConstantTicks(ticks)
	}
	if opt.YFromZero && points > 0 {
		p.Y.Min = 0
	}

	w, h := opt.Width, opt.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}
