package liveview

import (
	"fmt"
	"time"
)

const (
	// sampleIntervalMillis is the tick period the retained history is sized for.
	sampleIntervalMillis = 1000
	// historyMinutes of points are retained per series.
	historyMinutes = 5
	// windowLength is the visible x-axis width, in ticks.
	windowLength = 120
)

// tickInterval is the delay between the end of one tick and the start of the next.
var tickInterval = time.Duration(sampleIntervalMillis) * time.Millisecond

// MaxDataPoints is the number of points retained per series: five minutes at
// the sampling rate.
const MaxDataPoints = int((1000 / float64(sampleIntervalMillis)) * 60 * historyMinutes)

// BatteryState is the last known voltage and level, as pushed by the battery
// changed broadcast. It belongs to one live view session and is only touched
// from that session's goroutine.
type BatteryState struct {
	VoltageMillivolts int     `json:"voltageMillivolts"`
	LevelPercent      float64 `json:"levelPercent"`
}

// Metrics are the values derived from one tick.
type Metrics struct {
	Watts              float64 `json:"watts"`
	DischargeMilliamps float64 `json:"dischargeMilliamps"`
}

// Derive computes power draw and discharge current. Only a negative current
// means discharging; anything positive yields zero for both.
func Derive(currentNowMicroamps, voltageMillivolts int) Metrics {
	if currentNowMicroamps > 0 {
		return Metrics{}
	}

	ua := abs(currentNowMicroamps)
	return Metrics{
		Watts:              (float64(voltageMillivolts) / 1000) * (float64(ua) / 1_000_000),
		DischargeMilliamps: float64(ua / 1000),
	}
}

// FormatSummary renders the text shown above the charts.
func FormatSummary(currentNowMicroamps int, state BatteryState, m Metrics, chargeCounterMicroampHours int) string {
	return fmt.Sprintf("%d mA, %d mV, %.2f W\n%d%%, %d mAH remaining",
		currentNowMicroamps/1000,
		state.VoltageMillivolts,
		m.Watts,
		int(state.LevelPercent),
		chargeCounterMicroampHours/1000,
	)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
