package telemetry

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ErrTelemetryUnavailable is returned (wrapped) when a battery counter cannot be read,
// e.g. the property is not exposed by the driver or there is no battery at all.
var ErrTelemetryUnavailable = errors.New("telemetry unavailable")

// Property identifies a battery counter.
type Property int

const (
	// CurrentNow is the instantaneous battery current in microamperes.
	// Negative values mean the battery is discharging.
	CurrentNow Property = iota
	// CurrentAverage is the average battery current in microamperes.
	CurrentAverage
	// EnergyCounter is the remaining energy in nanowatt-hours.
	EnergyCounter
	// ChargeCounter is the remaining capacity in microampere-hours.
	ChargeCounter
	// Capacity is the remaining capacity as an integer percentage.
	Capacity
)

func (p Property) String() string {
	switch p {
	case CurrentNow:
		return "current_now"
	case CurrentAverage:
		return "current_average"
	case EnergyCounter:
		return "energy_counter"
	case ChargeCounter:
		return "charge_counter"
	case Capacity:
		return "capacity"
	default:
		return fmt.Sprintf("property(%d)", int(p))
	}
}

// Source is a synchronous battery counter reader.
type Source interface {
	IntProperty(p Property) (int, error)
}

// Snapshotter is implemented by sources that can answer several properties
// from one consistent reading of the hardware.
type Snapshotter interface {
	Snapshot() Source
}

// Sample holds one reading of every counter. It is never mutated after being read.
type Sample struct {
	CurrentNow     int `json:"currentNow"`
	CurrentAverage int `json:"currentAverage"`
	EnergyCounter  int `json:"energyCounter"`
	ChargeCounter  int `json:"chargeCounter"`
	Capacity       int `json:"capacity"`
}

// unavailable wraps err (may be nil) so that errors.Is(err, ErrTelemetryUnavailable) holds.
func unavailable(p Property, err error) error {
	if err == nil {
		return pkgerrors.Wrapf(ErrTelemetryUnavailable, "%s", p)
	}
	return pkgerrors.Wrapf(ErrTelemetryUnavailable, "%s: %v", p, err)
}
