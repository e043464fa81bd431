package notify

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s2group/batterybomber/pkg/events"
)

func TestEventIntExtra(t *testing.T) {
	ev := Event{Extras: map[string]int{ExtraVoltage: 4100}}
	assert.Equal(t, 4100, ev.IntExtra(ExtraVoltage, 0))
	assert.Equal(t, -1, ev.IntExtra(ExtraScale, -1))
	assert.Equal(t, 7, Event{}.IntExtra(ExtraLevel, 7))
}

func TestHubSourceDeliversMatchingAction(t *testing.T) {
	hub := events.NewEventHub()
	src := NewHubSource(hub)

	got := make(chan Event, 4)
	sub, err := src.Subscribe(ActionBatteryChanged, func(ev Event) { got <- ev })
	require.NoError(t, err)
	defer sub.Unsubscribe()

	hub.Publish(events.LiveSummary, events.LiveSummaryEvent{Summary: "ignored"})
	hub.Publish(events.BatteryChanged, events.BatteryChangedEvent{Voltage: 4000, Level: 55, Scale: 100})

	select {
	case ev := <-got:
		assert.Equal(t, ActionBatteryChanged, ev.Action)
		assert.Equal(t, 4000, ev.IntExtra(ExtraVoltage, 0))
		assert.Equal(t, 55, ev.IntExtra(ExtraLevel, 0))
		assert.Equal(t, 100, ev.IntExtra(ExtraScale, 0))
	case <-time.After(time.Second):
		t.Fatal("no broadcast delivered")
	}

	assert.Never(t, func() bool { return len(got) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestHubSourceUnsubscribe(t *testing.T) {
	hub := events.NewEventHub()
	src := NewHubSource(hub)

	sub, err := src.Subscribe(ActionBatteryChanged, func(Event) {})
	require.NoError(t, err)
	require.Equal(t, 1, hub.Subscribers())

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 0, hub.Subscribers())
}

func TestHubSourceRejectsNil(t *testing.T) {
	_, err := NewHubSource(nil).Subscribe(ActionBatteryChanged, func(Event) {})
	assert.Error(t, err)

	_, err = NewHubSource(events.NewEventHub()).Subscribe(ActionBatteryChanged, nil)
	assert.Error(t, err)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content+"\n"), 0o644))
}

func TestBroadcasterPublishesOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "voltage_now", "4000000")
	writeFile(t, dir, "capacity", "80")

	hub := events.NewEventHub()
	ch := hub.Subscribe()
	b := NewBroadcaster(dir, hub, time.Second)

	require.NoError(t, b.Poll())
	require.Len(t, ch, 1)
	payload, err := events.DecodeAs[events.BatteryChangedEvent](<-ch)
	require.NoError(t, err)
	assert.Equal(t, events.BatteryChangedEvent{Voltage: 4000, Level: 80, Scale: 100}, payload)

	// Unchanged: nothing published.
	require.NoError(t, b.Poll())
	assert.Len(t, ch, 0)

	writeFile(t, dir, "capacity", "79")
	require.NoError(t, b.Poll())
	require.Len(t, ch, 1)
	payload, err = events.DecodeAs[events.BatteryChangedEvent](<-ch)
	require.NoError(t, err)
	assert.Equal(t, 79, payload.Level)

	// Late subscribers get the retained state.
	late := hub.Subscribe()
	assert.Len(t, late, 1)
}

func TestBroadcasterMissingFiles(t *testing.T) {
	b := NewBroadcaster(t.TempDir(), events.NewEventHub(), 0)
	assert.Error(t, b.Poll())
	assert.Equal(t, 5*time.Second, b.interval)
}

func TestUPowerEvent(t *testing.T) {
	ev := upowerEvent(4.012, 87.25)
	assert.Equal(t, ActionBatteryChanged, ev.Action)
	assert.Equal(t, 4012, ev.IntExtra(ExtraVoltage, 0))
	assert.Equal(t, 8725, ev.IntExtra(ExtraLevel, 0))
	assert.Equal(t, 10000, ev.IntExtra(ExtraScale, 0))
}

func TestUPowerDevicePath(t *testing.T) {
	assert.Equal(t, dbus.ObjectPath("/org/freedesktop/UPower/devices/DisplayDevice"), UPowerDevicePath(""))
	assert.Equal(t, dbus.ObjectPath("/org/freedesktop/UPower/devices/battery_BAT0"), UPowerDevicePath("BAT0"))
}

func TestBatteryPropertiesChanged(t *testing.T) {
	tests := []struct {
		name string
		body []interface{}
		want bool
	}{
		{
			name: "voltage changed",
			body: []interface{}{upowerDeviceInterface, map[string]dbus.Variant{"Voltage": dbus.MakeVariant(4.0)}, []string{}},
			want: true,
		},
		{
			name: "percentage changed",
			body: []interface{}{upowerDeviceInterface, map[string]dbus.Variant{"Percentage": dbus.MakeVariant(50.0)}, []string{}},
			want: true,
		},
		{
			name: "unrelated property",
			body: []interface{}{upowerDeviceInterface, map[string]dbus.Variant{"UpdateTime": dbus.MakeVariant(uint64(1))}, []string{}},
			want: false,
		},
		{
			name: "other interface",
			body: []interface{}{"org.freedesktop.UPower", map[string]dbus.Variant{"Voltage": dbus.MakeVariant(4.0)}, []string{}},
			want: false,
		},
		{
			name: "short body",
			body: []interface{}{upowerDeviceInterface},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, batteryPropertiesChanged(tt.body))
		})
	}
}
