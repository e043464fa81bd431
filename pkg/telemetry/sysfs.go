package telemetry

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultPowerSupplyPath is where Linux and Android expose power supplies.
const DefaultPowerSupplyPath = "/sys/class/power_supply"

var _ Source = &Sysfs{}

// Sysfs reads battery counters from the kernel power_supply class.
//
// Units follow the kernel ABI: current_* in µA, charge_* in µAh, energy_* in µWh.
// Laptop drivers usually report current_now as an unsigned magnitude, Android
// gauges report it signed. Sysfs normalizes to the signed convention (negative
// while discharging) using the status attribute.
type Sysfs struct {
	dir string
}

// NewSysfs returns a Sysfs source for the named supply under root. If name is
// empty, the first supply whose type is "Battery" is used.
func NewSysfs(root, name string) (*Sysfs, error) {
	if root == "" {
		root = DefaultPowerSupplyPath
	}

	if name == "" {
		found, err := FindBattery(root)
		if err != nil {
			return nil, err
		}
		name = found
	}

	dir := filepath.Join(root, name)
	if _, err := os.Stat(dir); err != nil {
		return nil, pkgerrors.Wrapf(ErrTelemetryUnavailable, "power supply %s: %v", dir, err)
	}

	logrus.WithField("dir", dir).Debug("using sysfs battery telemetry")

	return &Sysfs{dir: dir}, nil
}

// Dir returns the power supply directory being read.
func (s *Sysfs) Dir() string {
	return s.dir
}

// FindBattery returns the name of the first power supply of type Battery under root.
func FindBattery(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", pkgerrors.Wrapf(ErrTelemetryUnavailable, "reading %s: %v", root, err)
	}

	for _, entry := range entries {
		// Entries are usually symlinks into /sys/devices, so IsDir is not reliable here.
		typ, err := readTrimmed(filepath.Join(root, entry.Name(), "type"))
		if err != nil {
			continue
		}
		if strings.EqualFold(typ, "Battery") {
			return entry.Name(), nil
		}
	}

	return "", pkgerrors.Wrapf(ErrTelemetryUnavailable, "no battery found in %s", root)
}

// IntProperty implements Source.
func (s *Sysfs) IntProperty(p Property) (int, error) {
	switch p {
	case CurrentNow:
		return s.signedCurrent(p, "current_now")
	case CurrentAverage:
		return s.signedCurrent(p, "current_avg")
	case EnergyCounter:
		v, err := s.readInt(p, "energy_now")
		if err != nil {
			return 0, err
		}
		// µWh -> nWh
		return v * 1000, nil
	case ChargeCounter:
		// Android gauges expose charge_counter, everything else charge_now.
		v, err := s.readInt(p, "charge_counter")
		if err == nil {
			return v, nil
		}
		return s.readInt(p, "charge_now")
	case Capacity:
		return s.readInt(p, "capacity")
	default:
		return 0, unavailable(p, nil)
	}
}

func (s *Sysfs) signedCurrent(p Property, file string) (int, error) {
	v, err := s.readInt(p, file)
	if err != nil {
		return 0, err
	}

	if v > 0 {
		status, err := readTrimmed(filepath.Join(s.dir, "status"))
		if err == nil && status == "Discharging" {
			v = -v
		}
	}

	return v, nil
}

func (s *Sysfs) readInt(p Property, file string) (int, error) {
	path := filepath.Join(s.dir, file)

	str, err := readTrimmed(path)
	if err != nil {
		return 0, unavailable(p, err)
	}

	v, err := strconv.Atoi(str)
	if err != nil {
		return 0, unavailable(p, pkgerrors.Wrapf(err, "failed to parse %s", path))
	}

	logrus.WithFields(logrus.Fields{
		"property": p.String(),
		"file":     path,
		"val":      v,
	}).Trace("read sysfs battery property")

	return v, nil
}

func readTrimmed(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// ReadVoltageMillivolts reads voltage_now (µV) from a power supply directory and
// returns it in millivolts.
func ReadVoltageMillivolts(dir string) (int, error) {
	str, err := readTrimmed(filepath.Join(dir, "voltage_now"))
	if err != nil {
		return 0, pkgerrors.Wrapf(ErrTelemetryUnavailable, "voltage_now: %v", err)
	}
	v, err := strconv.Atoi(str)
	if err != nil {
		return 0, pkgerrors.Wrapf(ErrTelemetryUnavailable, "voltage_now: %v", err)
	}
	return v / 1000, nil
}
