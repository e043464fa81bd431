package daemon

import (
	"sync"
	"time"

	"github.com/s2group/batterybomber/pkg/display"
	"github.com/s2group/batterybomber/pkg/events"
	"github.com/s2group/batterybomber/pkg/liveview"
	"github.com/s2group/batterybomber/pkg/types"
)

// viewMu orders open/close so that live.view events match the transitions.
var viewMu sync.Mutex

func openView() error {
	viewMu.Lock()
	defer viewMu.Unlock()

	if view.Active() {
		return nil
	}
	if err := view.Attach(daemonCtx); err != nil {
		return err
	}
	sseHub.PublishRetained(events.LiveView, events.LiveViewEvent{Active: true, Ts: time.Now().Unix()})
	return nil
}

func closeView() {
	viewMu.Lock()
	defer viewMu.Unlock()

	if !view.Active() {
		// Still detach: the session may have ended with its context and hold
		// a subscription.
		view.Detach()
		return
	}
	view.Detach()
	sseHub.PublishRetained(events.LiveView, events.LiveViewEvent{Active: false, Ts: time.Now().Unix()})
}

func toLiveSeries(s display.SeriesSnapshot) types.LiveSeries {
	points := make([]types.SeriesPoint, len(s.Points))
	for i, p := range s.Points {
		points[i] = types.SeriesPoint{X: p.X, Y: p.Y}
	}
	return types.LiveSeries{
		Name:        string(s.Name),
		Title:       s.Viewport.Title,
		MinX:        s.Viewport.MinX,
		MaxX:        s.Viewport.MaxX,
		MinY:        s.Viewport.MinY,
		MaxY:        s.Viewport.MaxY,
		ScrollToEnd: s.ScrollToEnd,
		Points:      points,
	}
}

// recordedSeries returns what was last drawn for name, or an empty series
// with the fixed viewport if nothing was drawn yet.
func recordedSeries(name liveview.SeriesName) (display.SeriesSnapshot, bool) {
	vp, ok := liveview.ViewportFor(name)
	if !ok {
		return display.SeriesSnapshot{}, false
	}
	if s, ok := recorder.Series(name); ok {
		return s, true
	}
	return display.SeriesSnapshot{Name: name, Viewport: vp}, true
}
