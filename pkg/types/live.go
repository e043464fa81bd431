package types

// LiveSummary is what GET /summary returns. It is shared between the daemon
// and client packages.
type LiveSummary struct {
	// Active reports whether the live view is open.
	Active bool `json:"active"`
	// Text is the last summary the live view produced. It is kept after the
	// view closes.
	Text string `json:"text"`
	// UpdatedAt is the unix time Text was produced, 0 if never.
	UpdatedAt int64 `json:"updatedAt"`
	// T is the x value the next sample will use. Only set while active.
	T float64 `json:"t"`

	VoltageMillivolts int     `json:"voltageMillivolts"`
	LevelPercent      float64 `json:"levelPercent"`
}

// SeriesPoint is one point of a live series.
type SeriesPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LiveSeries is what GET /series/:name returns.
type LiveSeries struct {
	Name        string        `json:"name"`
	Title       string        `json:"title"`
	MinX        float64       `json:"minX"`
	MaxX        float64       `json:"maxX"`
	MinY        float64       `json:"minY"`
	MaxY        float64       `json:"maxY"`
	ScrollToEnd bool          `json:"scrollToEnd"`
	Points      []SeriesPoint `json:"points"`
}
