// Package display implements the surfaces the live view draws on.
package display

import (
	"sync"
	"time"

	"github.com/s2group/batterybomber/pkg/events"
	"github.com/s2group/batterybomber/pkg/liveview"
	"github.com/s2group/batterybomber/pkg/series"
)

var _ liveview.Display = &Recorder{}

// SeriesSnapshot is a copy of a recorded chart.
type SeriesSnapshot struct {
	Name        liveview.SeriesName `json:"name"`
	Viewport    liveview.Viewport   `json:"viewport"`
	ScrollToEnd bool                `json:"scrollToEnd"`
	Points      []series.Point      `json:"points"`
}

type recordedSeries struct {
	viewport    liveview.Viewport
	points      *series.Rolling
	scrollToEnd bool
}

// Recorder keeps what the live view last drew so that it can be served to
// clients, and republishes every update on the event hub. It is safe for
// concurrent use: the live view writes while API handlers read.
type Recorder struct {
	mu      sync.RWMutex
	hub     *events.EventHub
	summary string
	updated time.Time
	series  map[liveview.SeriesName]*recordedSeries
}

// NewRecorder returns an empty Recorder. hub may be nil.
func NewRecorder(hub *events.EventHub) *Recorder {
	return &Recorder{
		hub:    hub,
		series: make(map[liveview.SeriesName]*recordedSeries),
	}
}

// SetSummary implements liveview.Display.
func (r *Recorder) SetSummary(summary string) {
	now := time.Now()

	r.mu.Lock()
	r.summary = summary
	r.updated = now
	r.mu.Unlock()

	r.hub.Publish(events.LiveSummary, events.LiveSummaryEvent{
		Summary: summary,
		Ts:      now.Unix(),
	})
}

// AppendData implements liveview.Display.
func (r *Recorder) AppendData(name liveview.SeriesName, p series.Point, scrollToEnd bool, maxPoints int) {
	r.mu.Lock()
	s := r.get(name, maxPoints)
	if s.points.MaxPoints() != maxPoints {
		s.points.Resize(maxPoints)
	}
	s.points.Append(p)
	s.scrollToEnd = scrollToEnd
	r.mu.Unlock()

	r.hub.Publish(events.LivePoint, events.LivePointEvent{
		Series:      string(name),
		X:           p.X,
		Y:           p.Y,
		ScrollToEnd: scrollToEnd,
	})
}

// ConfigureViewport implements liveview.Display. It also clears the series,
// since a newly configured chart starts empty.
func (r *Recorder) ConfigureViewport(name liveview.SeriesName, vp liveview.Viewport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.get(name, liveview.MaxDataPoints)
	s.viewport = vp
	s.points.Clear()
	s.scrollToEnd = false
}

func (r *Recorder) get(name liveview.SeriesName, maxPoints int) *recordedSeries {
	s, ok := r.series[name]
	if !ok {
		vp, _ := liveview.ViewportFor(name)
		s = &recordedSeries{
			viewport: vp,
			points:   series.NewRolling(maxPoints),
		}
		r.series[name] = s
	}
	return s
}

// Summary returns the last summary and when it was set. The time is zero
// if nothing was recorded yet.
func (r *Recorder) Summary() (string, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.summary, r.updated
}

// Series returns a copy of the named series.
func (r *Recorder) Series(name liveview.SeriesName) (SeriesSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.series[name]
	if !ok {
		return SeriesSnapshot{}, false
	}
	return SeriesSnapshot{
		Name:        name,
		Viewport:    s.viewport,
		ScrollToEnd: s.scrollToEnd,
		Points:      s.points.Points(),
	}, true
}

// Reset forgets the summary and every series.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.summary = ""
	r.updated = time.Time{}
	r.series = make(map[liveview.SeriesName]*recordedSeries)
}
