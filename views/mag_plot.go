package views

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"motion-logger/models"
)

// Axis indices into the plot's series.
const (
	AxisX = iota
	AxisY
	AxisZ
	numAxes
)

var axisNames = [numAxes]string{"Mag X", "Mag Y", "Mag Z"}

var axisStyles = [numAxes]lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("#0000FF")),
}

var plotAxisStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))

// Point is one (time, value) pair of a series.
type Point struct {
	T float64
	V float64
}

// MagPlot keeps the three magnetometer series of the current session and
// renders the trailing window. Append is called from sensor goroutines,
// rendering from the UI loop.
type MagPlot struct {
	mu     sync.RWMutex
	window float64
	series [numAxes][]Point
}

// NewMagPlot creates a plot showing at most windowSeconds of history.
func NewMagPlot(windowSeconds float64) *MagPlot {
	if windowSeconds <= 0 {
		windowSeconds = 30
	}
	return &MagPlot{window: windowSeconds}
}

// Reset drops every point of every series.
func (p *MagPlot) Reset() {
	p.mu.Lock()
	for i := range p.series {
		p.series[i] = nil
	}
	p.mu.Unlock()
}

// Append adds one point per axis. Samples from other sensors are ignored.
func (p *MagPlot) Append(s models.Sample) bool {
	if s.Kind != models.KindMagnetometer {
		return false
	}
	p.mu.Lock()
	p.series[AxisX] = append(p.series[AxisX], Point{s.RelativeTime, float64(s.X)})
	p.series[AxisY] = append(p.series[AxisY], Point{s.RelativeTime, float64(s.Y)})
	p.series[AxisZ] = append(p.series[AxisZ], Point{s.RelativeTime, float64(s.Z)})
	p.mu.Unlock()
	return true
}

// Len is the number of points in each series.
func (p *MagPlot) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.series[AxisX])
}

// Series returns a copy of one axis.
func (p *MagPlot) Series(axis int) []Point {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Point(nil), p.series[axis]...)
}

// Latest returns the time of the newest point, or 0 when empty.
func (p *MagPlot) Latest() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latestLocked()
}

func (p *MagPlot) latestLocked() float64 {
	s := p.series[AxisX]
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].T
}

// Visible returns copies of the points inside the trailing window.
func (p *MagPlot) Visible() [numAxes][]Point {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out [numAxes][]Point
	if len(p.series[AxisX]) == 0 {
		return out
	}
	from := p.latestLocked() - p.window
	for i := range p.series {
		s := p.series[i]
		// points are time ordered; find the first one inside the window
		lo := searchPoints(s, from)
		out[i] = append([]Point(nil), s[lo:]...)
	}
	return out
}

func searchPoints(s []Point, t float64) int {
	lo, hi := 0, len(s)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if s[mid].T < t {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Render draws the visible window as a width×height character chart with a
// legend line on top. The right edge is always the newest sample.
func (p *MagPlot) Render(width, height int) string {
	if width < 10 {
		width = 10
	}
	if height < 3 {
		height = 3
	}

	var legend []string
	for i, n := range axisNames {
		legend = append(legend, axisStyles[i].Render("● "+n))
	}
	header := strings.Join(legend, "  ")

	vis := p.Visible()
	if len(vis[AxisX]) == 0 {
		return header + "\n" + plotAxisStyle.Render("(waiting for magnetometer data)")
	}

	xMax := vis[AxisX][len(vis[AxisX])-1].T
	xMin := math.Max(vis[AxisX][0].T, xMax-p.window)
	if xMax-xMin < 1e-9 {
		xMin = xMax - 1
	}
	yMin, yMax := math.Inf(1), math.Inf(-1)
	for _, s := range vis {
		for _, pt := range s {
			yMin = math.Min(yMin, pt.V)
			yMax = math.Max(yMax, pt.V)
		}
	}
	if yMax-yMin < 1e-9 {
		yMin, yMax = yMin-1, yMax+1
	}

	labelW := 9
	plotW := width - labelW - 1
	if plotW < 1 {
		plotW = 1
	}

	// -1 marks an empty cell; later axes overwrite earlier ones
	grid := make([][]int, height)
	for r := range grid {
		grid[r] = make([]int, plotW)
		for c := range grid[r] {
			grid[r][c] = -1
		}
	}
	for a, s := range vis {
		for _, pt := range s {
			c := int((pt.T - xMin) / (xMax - xMin) * float64(plotW-1))
			r := int((yMax - pt.V) / (yMax - yMin) * float64(height-1))
			if c < 0 || c >= plotW || r < 0 || r >= height {
				continue
			}
			grid[r][c] = a
		}
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	for r, row := range grid {
		label := strings.Repeat(" ", labelW)
		switch r {
		case 0:
			label = fmt.Sprintf("%*.2f", labelW, yMax)
		case height - 1:
			label = fmt.Sprintf("%*.2f", labelW, yMin)
		}
		b.WriteString(plotAxisStyle.Render(label + "│"))
		for _, cell := range row {
			if cell < 0 {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(axisStyles[cell].Render("•"))
		}
		b.WriteByte('\n')
	}
	axis := fmt.Sprintf("%*s└%s", labelW, "", strings.Repeat("─", plotW))
	b.WriteString(plotAxisStyle.Render(axis))
	b.WriteByte('\n')
	span := fmt.Sprintf("%.1fs", xMin)
	end := fmt.Sprintf("%.1fs", xMax)
	pad := plotW - len(span) - len(end)
	if pad < 1 {
		pad = 1
	}
	b.WriteString(plotAxisStyle.Render(strings.Repeat(" ", labelW+1) + span + strings.Repeat(" ", pad) + end))
	return b.String()
}
