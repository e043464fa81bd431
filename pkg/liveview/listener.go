package liveview

import (
	"github.com/sirupsen/logrus"

	"github.com/s2group/batterybomber/pkg/notify"
)

// Listener keeps the cached battery state up to date from battery changed
// broadcasts. Only the most recent broadcast survives.
type Listener struct {
	state *BatteryState
}

// NewListener returns a Listener writing to state.
func NewListener(state *BatteryState) *Listener {
	return &Listener{state: state}
}

// OnReceive overwrites the cached voltage and level with the values carried
// by ev. Missing extras fall back to voltage 0, level -1 and scale -1.
func (l *Listener) OnReceive(ev notify.Event) {
	if ev.Action != notify.ActionBatteryChanged {
		return
	}

	voltage := ev.IntExtra(notify.ExtraVoltage, 0)
	level := ev.IntExtra(notify.ExtraLevel, -1)
	scale := ev.IntExtra(notify.ExtraScale, -1)

	l.state.VoltageMillivolts = voltage
	if scale == 0 {
		logrus.WithField("level", level).Warn("battery changed broadcast without a scale, keeping previous level")
	} else {
		l.state.LevelPercent = float64(level) * 100 / float64(scale)
	}

	logrus.WithFields(logrus.Fields{
		"voltage": l.state.VoltageMillivolts,
		"level":   l.state.LevelPercent,
	}).Debug("battery state changed")
}
