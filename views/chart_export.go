package views

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNotEnoughPoints is returned when a series cannot be drawn as a line.
var ErrNotEnoughPoints = errors.New("chart needs at least two points")

var exportColors = [numAxes]drawing.Color{drawing.ColorRed, drawing.ColorGreen, drawing.ColorBlue}

// ExportPNG renders the full session's three magnetometer series as a PNG.
func (p *MagPlot) ExportPNG(w io.Writer, width, height int) error {
	var all [numAxes][]Point
	for a := range all {
		all[a] = p.Series(a)
	}
	if len(all[AxisX]) < 2 {
		return ErrNotEnoughPoints
	}

	xMin, xMax := all[AxisX][0].T, all[AxisX][len(all[AxisX])-1].T
	if xMax <= xMin {
		xMax = xMin + 1
	}
	yMin, yMax := math.Inf(1), math.Inf(-1)

	series := make([]chart.Series, 0, numAxes)
	for a, pts := range all {
		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for i, pt := range pts {
			xs[i], ys[i] = pt.T, pt.V
			yMin = math.Min(yMin, pt.V)
			yMax = math.Max(yMax, pt.V)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    axisNames[a],
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: exportColors[a],
				StrokeWidth: 2,
			},
		})
	}
	if yMax-yMin < 1e-9 {
		yMin, yMax = yMin-1, yMax+1
	}

	ch := chart.Chart{
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 12, Bottom: 12}},
		XAxis: chart.XAxis{
			Name:  "time since start (s)",
			Range: &chart.ContinuousRange{Min: xMin, Max: xMax},
		},
		YAxis: chart.YAxis{
			Name:  "µT",
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render magnetometer chart: %w", err)
	}
	return nil
}

// ExportPNGFile writes the chart to path.
func (p *MagPlot) ExportPNGFile(path string, width, height int) (err error) {
	if p.Len() < 2 {
		return ErrNotEnoughPoints
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close chart file: %w", cerr)
		}
	}()
	if err := p.ExportPNG(f, width, height); err != nil {
		return err
	}
	return nil
}
