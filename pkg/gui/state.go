package gui

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/s2group/batterybomber/pkg/events"
	"github.com/s2group/batterybomber/pkg/liveview"
	"github.com/s2group/batterybomber/pkg/types"
)

// trayState is what the tray shows, built from daemon events.
type trayState struct {
	connected bool
	active    bool
	summary   string
	watts     float64
	hasWatts  bool
}

// apply folds ev into the state and reports whether anything visible changed.
func (s *trayState) apply(ev events.Event) bool {
	switch ev.Name {
	case events.LiveSummary:
		payload, err := events.DecodeAs[events.LiveSummaryEvent](ev)
		if err != nil {
			logrus.WithError(err).Error("failed to decode live.summary event")
			return false
		}
		s.summary = payload.Summary
		return true
	case events.LivePoint:
		payload, err := events.DecodeAs[events.LivePointEvent](ev)
		if err != nil {
			logrus.WithError(err).Error("failed to decode live.point event")
			return false
		}
		if payload.Series != string(liveview.SeriesPower) {
			return false
		}
		s.watts = payload.Y
		s.hasWatts = true
		return true
	case events.LiveView:
		payload, err := events.DecodeAs[events.LiveViewEvent](ev)
		if err != nil {
			logrus.WithError(err).Error("failed to decode live.view event")
			return false
		}
		s.active = payload.Active
		if !s.active {
			s.hasWatts = false
		}
		return true
	default:
		return false
	}
}

// applySummary resets the state from a polled summary.
func (s *trayState) applySummary(sum *types.LiveSummary) {
	s.connected = true
	s.active = sum.Active
	s.summary = sum.Text
	if !s.active {
		s.hasWatts = false
	}
}

func (s *trayState) title() string {
	switch {
	case !s.connected:
		return "🚫 Offline"
	case !s.active:
		return "🔋 Paused"
	case !s.hasWatts:
		return "🔋 ..."
	default:
		return fmt.Sprintf("🔋 %.2f W", s.watts)
	}
}

// lines returns the two summary lines for the menu.
func (s *trayState) lines() (string, string) {
	if !s.connected {
		return "Daemon not reachable", "-"
	}
	if s.summary == "" {
		return "No data yet", "-"
	}
	first, second, _ := strings.Cut(s.summary, "\n")
	if second == "" {
		second = "-"
	}
	return first, second
}

func (s *trayState) toggleTitle() string {
	if s.active {
		return "Close Live View"
	}
	return "Open Live View"
}
