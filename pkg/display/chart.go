package display

import (
	"io"

	pkgerrors "github.com/pkg/errors"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/s2group/batterybomber/pkg/series"
)

const (
	DefaultChartWidth  = 800
	DefaultChartHeight = 300
)

var seriesColors = map[string]drawing.Color{
	"power":   chart.ColorBlue,
	"current": chart.ColorRed,
}

// ChartRenderer draws a recorded series as a PNG line chart with the fixed
// axis ranges of its viewport.
type ChartRenderer struct {
	Width  int
	Height int
}

// NewChartRenderer returns a renderer producing width x height images.
// Non-positive sizes fall back to the defaults.
func NewChartRenderer(width, height int) *ChartRenderer {
	if width <= 0 {
		width = DefaultChartWidth
	}
	if height <= 0 {
		height = DefaultChartHeight
	}
	return &ChartRenderer{Width: width, Height: height}
}

// XRange returns the visible x range. It is the viewport's range until the
// series is allowed to scroll, then a window of the same width ending at the
// newest point.
func XRange(s SeriesSnapshot) (float64, float64) {
	minX, maxX := s.Viewport.MinX, s.Viewport.MaxX
	if !s.ScrollToEnd || len(s.Points) == 0 {
		return minX, maxX
	}
	last := s.Points[len(s.Points)-1].X
	if last <= maxX {
		return minX, maxX
	}
	return last - (maxX - minX), last
}

// Render writes s to w as a PNG.
func (c *ChartRenderer) Render(w io.Writer, s SeriesSnapshot) error {
	minX, maxX := XRange(s)
	xs, ys := plotValues(s.Points, minX, maxX, s.Viewport.MinY, s.Viewport.MaxY)

	color, ok := seriesColors[string(s.Name)]
	if !ok {
		color = chart.ColorBlack
	}

	xAxis := chart.XAxis{
		Range: &chart.ContinuousRange{Min: minX, Max: maxX},
	}
	if s.Viewport.HideXLabels {
		xAxis.Style = chart.Style{Hidden: true}
	}

	graph := chart.Chart{
		Title:      s.Viewport.Title,
		Width:      c.Width,
		Height:     c.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      xAxis,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: s.Viewport.MinY, Max: s.Viewport.MaxY},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    string(s.Name),
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: color,
					StrokeWidth: 2,
				},
			},
		},
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return pkgerrors.Wrapf(err, "failed to render %s chart", s.Name)
	}
	return nil
}

// plotValues returns the part of points inside [minX, maxX] as x and y
// slices, with y clamped to [minY, maxY]. go-chart does not clip to its
// ranges, so anything outside would be drawn over the axes and the title.
// A segment crossing the window edge is cut at the edge. A line needs two
// points, so shorter results are padded: an empty one with the viewport
// origin, a single point with itself.
func plotValues(points []series.Point, minX, maxX, minY, maxY float64) ([]float64, []float64) {
	var xs, ys []float64
	add := func(x, y float64) {
		xs = append(xs, x)
		ys = append(ys, min(max(y, minY), maxY))
	}

	for i, p := range points {
		var prev series.Point
		if i > 0 {
			prev = points[i-1]
		}
		if i > 0 && prev.X < minX && p.X > minX {
			add(minX, interpolate(prev, p, minX))
		}
		if p.X >= minX && p.X <= maxX {
			add(p.X, p.Y)
		}
		if i > 0 && prev.X < maxX && p.X > maxX {
			add(maxX, interpolate(prev, p, maxX))
		}
	}

	switch len(xs) {
	case 0:
		return []float64{minX, minX}, []float64{minY, minY}
	case 1:
		return []float64{xs[0], xs[0]}, []float64{ys[0], ys[0]}
	}
	return xs, ys
}

// interpolate returns the y value at x on the segment from a to b, a.X < x < b.X.
func interpolate(a, b series.Point, x float64) float64 {
	return a.Y + (b.Y-a.Y)*(x-a.X)/(b.X-a.X)
}
