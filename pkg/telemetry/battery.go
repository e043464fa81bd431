package telemetry

import (
	"math"

	"github.com/distatus/battery"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/s2group/batterybomber/pkg/powerinfo"
)

var (
	_ Source      = &Battery{}
	_ Snapshotter = &Battery{}
)

// Battery derives counters from github.com/distatus/battery, which works on
// platforms without a power_supply class. It reports energy (mWh), power (mW)
// and voltage (V), so currents and charges are computed from those.
type Battery struct {
	idx int
	get func(idx int) (*battery.Battery, error)
}

// NewBattery returns a source reading the battery at index idx.
func NewBattery(idx int) *Battery {
	return &Battery{
		idx: idx,
		get: battery.Get,
	}
}

// IntProperty implements Source. Every call performs a fresh read; use
// Snapshot to read several properties from the same reading.
func (b *Battery) IntProperty(p Property) (int, error) {
	return b.Snapshot().IntProperty(p)
}

// Snapshot implements Snapshotter with a single read of the battery.
func (b *Battery) Snapshot() Source {
	bat, err := b.get(b.idx)
	return &batteryReading{bat: bat, err: err}
}

// batteryReading answers every property from one battery read.
type batteryReading struct {
	bat *battery.Battery
	err error
}

func (r *batteryReading) IntProperty(p Property) (int, error) {
	bat, err := r.bat, r.err
	if bat == nil {
		return 0, unavailable(p, err)
	}
	if err != nil {
		// Partial reads are common (e.g. no design voltage); only fail if a field
		// this property depends on is missing.
		if perr, ok := err.(battery.ErrPartial); ok && partialFails(p, perr) {
			return 0, unavailable(p, err)
		}
		logrus.WithError(err).Trace("partial battery read")
	}

	switch p {
	case CurrentNow:
		if bat.Voltage <= 0 {
			return 0, unavailable(p, nil)
		}
		// mW / V = mA
		ua := int(math.Round(bat.ChargeRate / bat.Voltage * 1000))
		if bat.State == battery.Discharging {
			ua = -ua
		}
		return ua, nil
	case CurrentAverage:
		// Not reported by the library.
		return 0, unavailable(p, nil)
	case EnergyCounter:
		// mWh -> nWh
		return int(math.Round(bat.Current * 1e6)), nil
	case ChargeCounter:
		if bat.Voltage <= 0 {
			return 0, unavailable(p, nil)
		}
		// mWh / V = mAh
		return int(math.Round(bat.Current / bat.Voltage * 1000)), nil
	case Capacity:
		if bat.Full <= 0 {
			return 0, unavailable(p, nil)
		}
		return int(bat.Current / bat.Full * 100), nil
	default:
		return 0, unavailable(p, nil)
	}
}

func partialFails(p Property, perr battery.ErrPartial) bool {
	switch p {
	case CurrentNow:
		return perr.ChargeRate != nil || perr.Voltage != nil
	case EnergyCounter:
		return perr.Current != nil
	case ChargeCounter:
		return perr.Current != nil || perr.Voltage != nil
	case Capacity:
		return perr.Current != nil || perr.Full != nil
	default:
		return false
	}
}

// Info returns the raw battery readings. Partial reads are tolerated; the
// missing fields are zero. ChargeRate is negative while discharging.
func (b *Battery) Info() (*powerinfo.Battery, error) {
	bat, err := b.get(b.idx)
	if bat == nil {
		if err == nil {
			err = pkgerrors.Errorf("no battery at index %d", b.idx)
		}
		return nil, pkgerrors.Wrap(err, "failed to get battery info")
	}
	if err != nil {
		logrus.WithError(err).Debug("partial battery read")
	}

	info := &powerinfo.Battery{
		State:         bat.State.String(),
		Current:       bat.Current,
		Full:          bat.Full,
		Design:        bat.Design,
		ChargeRate:    bat.ChargeRate,
		Voltage:       bat.Voltage,
		DesignVoltage: bat.DesignVoltage,
	}
	if bat.State == battery.Discharging {
		info.ChargeRate = -info.ChargeRate
	}
	return info, nil
}
