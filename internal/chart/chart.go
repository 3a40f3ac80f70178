// Package chart renders analysis tables as line and bar chart images.
package chart

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/runnerr0/instalens/internal/table"
)

// Figure describes chart labels and the output size.
type Figure struct {
	Title  string
	XLabel string
	YLabel string
	Width  vg.Length
	Height vg.Length
}

// Inches returns a figure of the given size in inches.
func Inches(title, xLabel, yLabel string, width, height float64) Figure {
	return Figure{
		Title:  title,
		XLabel: xLabel,
		YLabel: yLabel,
		Width:  vg.Length(width) * vg.Inch,
		Height: vg.Length(height) * vg.Inch,
	}
}

func (f Figure) newPlot() *plot.Plot {
	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = f.XLabel
	p.Y.Label.Text = f.YLabel
	p.Add(plotter.NewGrid())
	return p
}

func save(p *plot.Plot, f Figure, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create chart directory: %w", err)
	}
	if err := p.Save(f.Width, f.Height, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}

// Line plots yCol against the rows of t, labelling the x axis with xCol.
// Rows whose y value is not numeric are skipped. The image format follows
// the extension of path.
func Line(t *table.Table, xCol, yCol string, f Figure, path string) error {
	if err := table.Require(t, xCol, yCol); err != nil {
		return err
	}
	var (
		pts    plotter.XYs
		labels []string
	)
	for i := 0; i < t.Len(); i++ {
		y, ok := t.Value(i, yCol).Numeric()
		if !ok {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(len(labels)), Y: y})
		labels = append(labels, t.Value(i, xCol).Text())
	}

	p := f.newPlot()
	if len(pts) > 0 {
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return fmt.Errorf("line %s: %w", yCol, err)
		}
		line.Color = plotutil.Color(0)
		points.Color = plotutil.Color(0)
		p.Add(line, points)
		p.NominalX(labels...)
	}
	return save(p, f, path)
}

// Bars draws one bar group per row of t, labelled by the category columns,
// with one bar per value column. Non-numeric values are drawn as 0.
func Bars(t *table.Table, categoryCols, valueCols []string, f Figure, path string) error {
	if err := table.Require(t, append(append([]string{}, categoryCols...), valueCols...)...); err != nil {
		return err
	}

	labels := make([]string, t.Len())
	for i := range labels {
		parts := make([]string, len(categoryCols))
		for k, c := range categoryCols {
			parts[k] = t.Value(i, c).Text()
		}
		labels[i] = strings.Join(parts, " / ")
	}

	p := f.newPlot()
	if t.Len() > 0 {
		width := vg.Points(60 / float64(len(valueCols)))
		for k, c := range valueCols {
			vals := make(plotter.Values, t.Len())
			for i := range vals {
				if v, ok := t.Value(i, c).Numeric(); ok {
					vals[i] = v
				}
			}
			bars, err := plotter.NewBarChart(vals, width)
			if err != nil {
				return fmt.Errorf("bars %s: %w", c, err)
			}
			bars.LineStyle.Width = 0
			bars.Color = plotutil.Color(k)
			bars.Offset = vg.Length(float64(k)-float64(len(valueCols)-1)/2) * width
			p.Add(bars)
			p.Legend.Add(c, bars)
		}
		p.Legend.Top = true
		p.NominalX(labels...)
	}
	return save(p, f, path)
}
