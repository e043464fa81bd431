package notify

import (
	"fmt"
	"math"
	"sync"

	"github.com/godbus/dbus/v5"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	upowerService         = "org.freedesktop.UPower"
	upowerDeviceInterface = "org.freedesktop.UPower.Device"
	upowerDevicesPath     = "/org/freedesktop/UPower/devices/"
	propertiesChanged     = "org.freedesktop.DBus.Properties.PropertiesChanged"
)

var _ Source = &UPower{}

// UPower delivers battery.changed broadcasts from the UPower daemon on the
// system bus. Like a sticky broadcast, the current state is delivered right
// after subscribing.
type UPower struct {
	conn *dbus.Conn
	path dbus.ObjectPath
}

// UPowerDevicePath returns the UPower object path for a kernel battery name,
// or the aggregate display device when name is empty.
func UPowerDevicePath(name string) dbus.ObjectPath {
	if name == "" {
		return dbus.ObjectPath(upowerDevicesPath + "DisplayDevice")
	}
	return dbus.ObjectPath(upowerDevicesPath + "battery_" + name)
}

// NewUPower connects to the system bus.
func NewUPower(batteryName string) (*UPower, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to connect to system bus")
	}
	return &UPower{
		conn: conn,
		path: UPowerDevicePath(batteryName),
	}, nil
}

// Close closes the bus connection.
func (u *UPower) Close() error {
	return u.conn.Close()
}

// Subscribe implements Source. Only ActionBatteryChanged is supported.
func (u *UPower) Subscribe(action string, h Handler) (Subscription, error) {
	if action != ActionBatteryChanged {
		return nil, pkgerrors.Errorf("unsupported action %q", action)
	}

	rule := fmt.Sprintf("type='signal',interface='org.freedesktop.DBus.Properties',member='PropertiesChanged',path='%s'", u.path)
	call := u.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule)
	if call.Err != nil {
		return nil, pkgerrors.Wrap(call.Err, "failed to add match rule")
	}

	c := make(chan *dbus.Signal, 10)
	u.conn.Signal(c)

	logrus.WithField("path", u.path).Debug("listening for UPower battery changes")

	go func() {
		if ev, err := u.read(); err == nil {
			h(ev)
		} else {
			logrus.WithError(err).Warn("failed to read initial UPower battery state")
		}

		for signal := range c {
			if signal.Path != u.path || signal.Name != propertiesChanged {
				continue
			}
			if !batteryPropertiesChanged(signal.Body) {
				continue
			}
			ev, err := u.read()
			if err != nil {
				logrus.WithError(err).Warn("failed to read UPower battery state")
				continue
			}
			h(ev)
		}
	}()

	var once sync.Once
	return SubscriptionFunc(func() {
		once.Do(func() {
			u.conn.RemoveSignal(c)
			close(c)
			if call := u.conn.BusObject().Call("org.freedesktop.DBus.RemoveMatch", 0, rule); call.Err != nil {
				logrus.WithError(call.Err).Debug("failed to remove match rule")
			}
		})
	}), nil
}

func (u *UPower) read() (Event, error) {
	obj := u.conn.Object(upowerService, u.path)

	voltage, err := floatProperty(obj, "Voltage")
	if err != nil {
		return Event{}, err
	}
	percentage, err := floatProperty(obj, "Percentage")
	if err != nil {
		return Event{}, err
	}

	return upowerEvent(voltage, percentage), nil
}

func floatProperty(obj dbus.BusObject, name string) (float64, error) {
	v, err := obj.GetProperty(upowerDeviceInterface + "." + name)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to get %s", name)
	}
	f, ok := v.Value().(float64)
	if !ok {
		return 0, pkgerrors.Errorf("unexpected type %T for %s", v.Value(), name)
	}
	return f, nil
}

// upowerEvent converts UPower units (volts, percent as double) to a
// battery.changed event. The level keeps two decimals by using a scale of 10000.
func upowerEvent(volts, percentage float64) Event {
	return Event{
		Action: ActionBatteryChanged,
		Extras: map[string]int{
			ExtraVoltage: int(math.Round(volts * 1000)),
			ExtraLevel:   int(math.Round(percentage * 100)),
			ExtraScale:   10000,
		},
	}
}

// batteryPropertiesChanged reports whether a PropertiesChanged body touches
// a property the live view cares about.
func batteryPropertiesChanged(body []interface{}) bool {
	if len(body) < 2 {
		return false
	}
	iface, ok := body[0].(string)
	if !ok || iface != upowerDeviceInterface {
		return false
	}
	changed, ok := body[1].(map[string]dbus.Variant)
	if !ok {
		return false
	}
	_, voltage := changed["Voltage"]
	_, percentage := changed["Percentage"]
	return voltage || percentage
}
