package liveview

import (
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/s2group/batterybomber/pkg/series"
	"github.com/s2group/batterybomber/pkg/telemetry"
)

// Sampler turns battery counters into the live metrics. One Tick is one
// sample; the caller decides when ticks happen.
type Sampler struct {
	source  telemetry.Source
	state   *BatteryState
	display Display

	power     *series.Rolling
	current   *series.Rolling
	maxPoints int

	// t is the shared x value of both series, advanced once per completed tick.
	t float64
}

// NewSampler returns a Sampler reading from source and the cached state, and
// keeping at most maxPoints per series.
func NewSampler(source telemetry.Source, state *BatteryState, display Display, maxPoints int) *Sampler {
	return &Sampler{
		source:    source,
		state:     state,
		display:   display,
		power:     series.NewRolling(maxPoints),
		current:   series.NewRolling(maxPoints),
		maxPoints: maxPoints,
	}
}

// T returns the x value the next tick will use.
func (s *Sampler) T() float64 {
	return s.t
}

// Power returns the retained power series.
func (s *Sampler) Power() *series.Rolling {
	return s.power
}

// Current returns the retained discharge current series.
func (s *Sampler) Current() *series.Rolling {
	return s.current
}

// Read reads every counter once. CurrentNow and ChargeCounter are required;
// the others are known to be unreliable on many gauges and read as zero when
// missing. A source implementing telemetry.Snapshotter is read once per call.
func (s *Sampler) Read() (telemetry.Sample, error) {
	var sample telemetry.Sample
	var err error

	src := s.source
	if snap, ok := src.(telemetry.Snapshotter); ok {
		src = snap.Snapshot()
	}

	if sample.CurrentNow, err = src.IntProperty(telemetry.CurrentNow); err != nil {
		return sample, pkgerrors.Wrap(err, "failed to read current")
	}
	sample.CurrentAverage = optional(src, telemetry.CurrentAverage)
	sample.EnergyCounter = optional(src, telemetry.EnergyCounter)
	if sample.ChargeCounter, err = src.IntProperty(telemetry.ChargeCounter); err != nil {
		return sample, pkgerrors.Wrap(err, "failed to read charge counter")
	}
	sample.Capacity = optional(src, telemetry.Capacity)

	return sample, nil
}

func optional(src telemetry.Source, p telemetry.Property) int {
	v, err := src.IntProperty(p)
	if err != nil {
		logrus.WithError(err).WithField("property", p.String()).Trace("ignoring unavailable property")
		return 0
	}
	return v
}

// Tick samples once: read, derive, publish the summary, append to both
// series and advance t. If a required counter cannot be read nothing is
// published and t stays put.
func (s *Sampler) Tick() error {
	sample, err := s.Read()
	if err != nil {
		return err
	}

	m := Derive(sample.CurrentNow, s.state.VoltageMillivolts)
	summary := FormatSummary(sample.CurrentNow, *s.state, m, sample.ChargeCounter)
	s.display.SetSummary(summary)

	scrollToEnd := s.t > windowLength
	s.append(SeriesPower, s.power, series.Point{X: s.t, Y: m.Watts}, scrollToEnd)
	s.append(SeriesCurrent, s.current, series.Point{X: s.t, Y: m.DischargeMilliamps}, scrollToEnd)

	logrus.WithFields(logrus.Fields{
		"t":                  s.t,
		"currentNow":         sample.CurrentNow,
		"currentAverage":     sample.CurrentAverage,
		"energy":             sample.EnergyCounter,
		"chargeCounter":      sample.ChargeCounter,
		"capacity":           sample.Capacity,
		"voltage":            s.state.VoltageMillivolts,
		"level":              s.state.LevelPercent,
		"watts":              m.Watts,
		"dischargeMilliamps": m.DischargeMilliamps,
	}).Trace("live view tick")

	s.t++

	return nil
}

func (s *Sampler) append(name SeriesName, r *series.Rolling, p series.Point, scrollToEnd bool) {
	r.Append(p)
	s.display.AppendData(name, p, scrollToEnd, s.maxPoints)
}
