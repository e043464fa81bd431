package events

import "encoding/json"

// Event name constants
const (
	// BatteryChanged carries a BatteryChangedEvent. It is the broadcast the
	// live view listens to for voltage and level.
	BatteryChanged = "battery.changed"
	// LiveSummary carries a LiveSummaryEvent each time the live view refreshes its text.
	LiveSummary = "live.summary"
	// LivePoint carries a LivePointEvent for every point appended to a live series.
	LivePoint = "live.point"
	// LiveView carries a LiveViewEvent when the live view is opened or closed.
	LiveView = "live.view"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// BatteryChangedEvent is the typed payload for battery.changed.
// Level/Scale is the charge fraction, Voltage is in millivolts.
type BatteryChangedEvent struct {
	Voltage int `json:"voltage"`
	Level   int `json:"level"`
	Scale   int `json:"scale"`
}

// LiveSummaryEvent is the typed payload for live.summary.
type LiveSummaryEvent struct {
	Summary string `json:"summary"`
	Ts      int64  `json:"ts"`
}

// LivePointEvent is the typed payload for live.point.
type LivePointEvent struct {
	Series      string  `json:"series"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	ScrollToEnd bool    `json:"scrollToEnd"`
}

// LiveViewEvent is the typed payload for live.view.
type LiveViewEvent struct {
	Active bool  `json:"active"`
	Ts     int64 `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.LiveSummaryEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.Summary)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
