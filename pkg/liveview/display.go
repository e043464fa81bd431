package liveview

import "github.com/s2group/batterybomber/pkg/series"

// SeriesName names one of the two live series.
type SeriesName string

const (
	SeriesPower   SeriesName = "power"
	SeriesCurrent SeriesName = "current"
)

// Viewport is the fixed axis range of a chart.
type Viewport struct {
	Title       string  `json:"title"`
	MinX        float64 `json:"minX"`
	MaxX        float64 `json:"maxX"`
	MinY        float64 `json:"minY"`
	MaxY        float64 `json:"maxY"`
	HideXLabels bool    `json:"hideXLabels"`
}

// Display is the rendering surface the live view drives. All calls are made
// from the live view's own goroutine, one at a time.
type Display interface {
	// SetSummary replaces the text summary.
	SetSummary(summary string)
	// AppendData appends p to the named series, keeping at most maxPoints.
	// scrollToEnd allows the x-axis to follow the newest point.
	AppendData(name SeriesName, p series.Point, scrollToEnd bool, maxPoints int)
	// ConfigureViewport sets up (or resets) the chart for a series.
	ConfigureViewport(name SeriesName, vp Viewport)
}

var (
	powerViewport = Viewport{
		Title:       "Watt consumption (W)",
		MinX:        0,
		MaxX:        windowLength,
		MinY:        0,
		MaxY:        8,
		HideXLabels: true,
	}
	currentViewport = Viewport{
		Title: "Current discharge (mA)",
		MinX:  0,
		MaxX:  windowLength,
		MinY:  0,
		MaxY:  2500,
	}
)

// ViewportFor returns the fixed viewport of a series.
func ViewportFor(name SeriesName) (Viewport, bool) {
	switch name {
	case SeriesPower:
		return powerViewport, true
	case SeriesCurrent:
		return currentViewport, true
	default:
		return Viewport{}, false
	}
}

// SeriesNames lists the live series in display order.
func SeriesNames() []SeriesName {
	return []SeriesName{SeriesPower, SeriesCurrent}
}
