package daemon

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/s2group/batterybomber/pkg/config"
	"github.com/s2group/batterybomber/pkg/events"
	"github.com/s2group/batterybomber/pkg/notify"
	"github.com/s2group/batterybomber/pkg/telemetry"
)

// NewTelemetrySource returns the telemetry source selected by conf.
func NewTelemetrySource(conf config.Config) (telemetry.Source, error) {
	switch conf.TelemetrySource() {
	case config.TelemetryBattery:
		logrus.WithField("index", conf.BatteryIndex()).Info("reading telemetry from battery library")
		return telemetry.NewBattery(conf.BatteryIndex()), nil
	case config.TelemetrySysfs:
		s, err := telemetry.NewSysfs(conf.PowerSupplyPath(), conf.BatteryName())
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to set up sysfs telemetry")
		}
		logrus.WithField("dir", s.Dir()).Info("reading telemetry from sysfs")
		return s, nil
	default:
		return nil, pkgerrors.Errorf("unknown telemetry source %q", conf.TelemetrySource())
	}
}

// NewNotificationSource returns the battery changed source and a function
// releasing it. The sysfs source polls in the background until stop is
// called or ctx is done, publishing on hub.
func NewNotificationSource(ctx context.Context, conf config.Config, hub *events.EventHub) (notify.Source, func(), error) {
	switch conf.NotificationSource() {
	case config.NotificationUPower:
		u, err := notify.NewUPower(conf.BatteryName())
		if err != nil {
			return nil, nil, pkgerrors.Wrap(err, "failed to set up UPower notifications")
		}
		logrus.Info("listening for battery changes from UPower")
		return u, func() {
			if err := u.Close(); err != nil {
				logrus.WithError(err).Warn("failed to close system bus connection")
			}
		}, nil
	case config.NotificationSysfs:
		s, err := telemetry.NewSysfs(conf.PowerSupplyPath(), conf.BatteryName())
		if err != nil {
			return nil, nil, pkgerrors.Wrap(err, "failed to set up sysfs notifications")
		}
		interval := time.Duration(conf.BroadcastIntervalSeconds()) * time.Second
		b := notify.NewBroadcaster(s.Dir(), hub, interval)

		bctx, cancel := context.WithCancel(ctx)
		go b.Run(bctx)

		logrus.WithFields(logrus.Fields{
			"dir":      s.Dir(),
			"interval": interval,
		}).Info("polling sysfs for battery changes")
		return notify.NewHubSource(hub), cancel, nil
	default:
		return nil, nil, pkgerrors.Errorf("unknown notification source %q", conf.NotificationSource())
	}
}
