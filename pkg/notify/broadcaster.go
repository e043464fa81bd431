package notify

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/s2group/batterybomber/pkg/events"
	"github.com/s2group/batterybomber/pkg/telemetry"
)

// Broadcaster watches a power supply directory and publishes battery.changed
// on an event hub whenever voltage or level changes. The latest state is
// retained, so subscribers joining later receive it immediately.
type Broadcaster struct {
	dir      string
	hub      *events.EventHub
	interval time.Duration

	last    events.BatteryChangedEvent
	hasLast bool
}

// NewBroadcaster returns a Broadcaster polling dir every interval.
func NewBroadcaster(dir string, hub *events.EventHub, interval time.Duration) *Broadcaster {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Broadcaster{
		dir:      dir,
		hub:      hub,
		interval: interval,
	}
}

// Run polls until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	logrus.WithFields(logrus.Fields{
		"dir":      b.dir,
		"interval": b.interval,
	}).Debug("battery broadcaster starts")

	for {
		if err := b.Poll(); err != nil {
			logrus.WithError(err).Debug("battery broadcaster poll failed")
		}

		select {
		case <-ctx.Done():
			logrus.Debug("battery broadcaster stopped")
			return
		case <-time.After(b.interval):
		}
	}
}

// Poll reads the supply once and publishes if anything changed since the last
// published state.
func (b *Broadcaster) Poll() error {
	voltage, err := telemetry.ReadVoltageMillivolts(b.dir)
	if err != nil {
		return err
	}

	level, err := readInt(filepath.Join(b.dir, "capacity"))
	if err != nil {
		return err
	}

	cur := events.BatteryChangedEvent{
		Voltage: voltage,
		Level:   level,
		Scale:   100,
	}
	if b.hasLast && cur == b.last {
		return nil
	}

	b.last = cur
	b.hasLast = true
	b.hub.PublishRetained(events.BatteryChanged, cur)

	logrus.WithFields(logrus.Fields{
		"voltage": cur.Voltage,
		"level":   cur.Level,
	}).Trace("battery changed")

	return nil
}

func readInt(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to read %s", path)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to parse %s", path)
	}
	return v, nil
}
