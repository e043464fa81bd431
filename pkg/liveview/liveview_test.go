package liveview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s2group/batterybomber/pkg/events"
	"github.com/s2group/batterybomber/pkg/notify"
	"github.com/s2group/batterybomber/pkg/series"
	"github.com/s2group/batterybomber/pkg/telemetry"
)

type recordingDisplay struct {
	mu        sync.Mutex
	summaries []string
	points    map[SeriesName][]series.Point
	scrolls   map[SeriesName][]bool
	viewports map[SeriesName]Viewport
	calls     int
}

func newRecordingDisplay() *recordingDisplay {
	return &recordingDisplay{
		points:    make(map[SeriesName][]series.Point),
		scrolls:   make(map[SeriesName][]bool),
		viewports: make(map[SeriesName]Viewport),
	}
}

func (d *recordingDisplay) SetSummary(summary string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	d.summaries = append(d.summaries, summary)
}

func (d *recordingDisplay) AppendData(name SeriesName, p series.Point, scrollToEnd bool, maxPoints int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	pts := append(d.points[name], p)
	if len(pts) > maxPoints {
		pts = pts[len(pts)-maxPoints:]
	}
	d.points[name] = pts
	d.scrolls[name] = append(d.scrolls[name], scrollToEnd)
}

func (d *recordingDisplay) ConfigureViewport(name SeriesName, vp Viewport) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	d.viewports[name] = vp
	d.points[name] = nil
	d.scrolls[name] = nil
}

func (d *recordingDisplay) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.calls
}

func (d *recordingDisplay) Points(name SeriesName) []series.Point {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]series.Point(nil), d.points[name]...)
}

func (d *recordingDisplay) LastSummary() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.summaries) == 0 {
		return ""
	}
	return d.summaries[len(d.summaries)-1]
}

func dischargingMock() *telemetry.Mock {
	return telemetry.NewMock(map[telemetry.Property]int{
		telemetry.CurrentNow:     -500000,
		telemetry.CurrentAverage: -480000,
		telemetry.EnergyCounter:  40000000000,
		telemetry.ChargeCounter:  3000000,
		telemetry.Capacity:       80,
	})
}

func withTickInterval(t *testing.T, d time.Duration) {
	t.Helper()
	old := tickInterval
	tickInterval = d
	t.Cleanup(func() { tickInterval = old })
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name       string
		currentNow int
		voltage    int
		want       Metrics
	}{
		{name: "discharging", currentNow: -500000, voltage: 4000, want: Metrics{Watts: 2.0, DischargeMilliamps: 500}},
		{name: "charging", currentNow: 1200000, voltage: 4200, want: Metrics{}},
		{name: "idle", currentNow: 0, voltage: 4000, want: Metrics{}},
		{name: "milliamps truncate", currentNow: -1999, voltage: 3800, want: Metrics{Watts: 3.8 * 0.001999, DischargeMilliamps: 1}},
		{name: "no voltage yet", currentNow: -700000, voltage: 0, want: Metrics{DischargeMilliamps: 700}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.currentNow, tt.voltage)
			assert.InDelta(t, tt.want.Watts, got.Watts, 1e-12)
			assert.Equal(t, tt.want.DischargeMilliamps, got.DischargeMilliamps)
		})
	}
}

func TestFormatSummary(t *testing.T) {
	m := Derive(-500000, 4000)
	got := FormatSummary(-500000, BatteryState{VoltageMillivolts: 4000, LevelPercent: 55.7}, m, 3000000)
	assert.Equal(t, "-500 mA, 4000 mV, 2.00 W\n55%, 3000 mAH remaining", got)
}

func TestMaxDataPoints(t *testing.T) {
	assert.Equal(t, 300, MaxDataPoints)
}

func TestListenerOnReceive(t *testing.T) {
	tests := []struct {
		name   string
		extras map[string]int
		prev   BatteryState
		want   BatteryState
	}{
		{
			name:   "level over scale",
			extras: map[string]int{notify.ExtraVoltage: 4012, notify.ExtraLevel: 45, notify.ExtraScale: 50},
			want:   BatteryState{VoltageMillivolts: 4012, LevelPercent: 90},
		},
		{
			name:   "fine grained scale",
			extras: map[string]int{notify.ExtraVoltage: 3900, notify.ExtraLevel: 8725, notify.ExtraScale: 10000},
			want:   BatteryState{VoltageMillivolts: 3900, LevelPercent: 87.25},
		},
		{
			name:   "missing extras",
			extras: nil,
			prev:   BatteryState{VoltageMillivolts: 4000, LevelPercent: 50},
			want:   BatteryState{VoltageMillivolts: 0, LevelPercent: 100},
		},
		{
			name:   "zero scale keeps level",
			extras: map[string]int{notify.ExtraVoltage: 3700, notify.ExtraLevel: 10, notify.ExtraScale: 0},
			prev:   BatteryState{VoltageMillivolts: 4000, LevelPercent: 50},
			want:   BatteryState{VoltageMillivolts: 3700, LevelPercent: 50},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := tt.prev
			NewListener(&state).OnReceive(notify.Event{Action: notify.ActionBatteryChanged, Extras: tt.extras})
			assert.Equal(t, tt.want, state)
		})
	}
}

func TestListenerIgnoresOtherActions(t *testing.T) {
	state := BatteryState{VoltageMillivolts: 4000, LevelPercent: 50}
	NewListener(&state).OnReceive(notify.Event{Action: "something.else", Extras: map[string]int{notify.ExtraVoltage: 1}})
	assert.Equal(t, BatteryState{VoltageMillivolts: 4000, LevelPercent: 50}, state)
}

func TestSamplerTick(t *testing.T) {
	d := newRecordingDisplay()
	state := &BatteryState{VoltageMillivolts: 4000, LevelPercent: 80}
	s := NewSampler(dischargingMock(), state, d, MaxDataPoints)

	require.NoError(t, s.Tick())
	assert.Equal(t, float64(1), s.T())
	assert.Equal(t, "-500 mA, 4000 mV, 2.00 W\n80%, 3000 mAH remaining", d.LastSummary())
	assert.Equal(t, []series.Point{{X: 0, Y: 2.0}}, d.Points(SeriesPower))
	assert.Equal(t, []series.Point{{X: 0, Y: 500}}, d.Points(SeriesCurrent))
	assert.Equal(t, 1, s.Power().Len())
	assert.Equal(t, 1, s.Current().Len())
}

func TestSamplerOptionalCountersMayBeMissing(t *testing.T) {
	src := telemetry.NewMock(map[telemetry.Property]int{
		telemetry.CurrentNow:    -250000,
		telemetry.ChargeCounter: 1500000,
	})
	s := NewSampler(src, &BatteryState{VoltageMillivolts: 4000}, newRecordingDisplay(), MaxDataPoints)

	sample, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, telemetry.Sample{CurrentNow: -250000, ChargeCounter: 1500000}, sample)
	assert.Equal(t, 5, src.Reads())
}

// snapshotSource hands out one reading per Snapshot, each with a lower charge.
type snapshotSource struct {
	*telemetry.Mock
	charge   int
	readings []*telemetry.Mock
}

func (s *snapshotSource) Snapshot() telemetry.Source {
	s.charge -= 1000
	r := telemetry.NewMock(map[telemetry.Property]int{
		telemetry.CurrentNow:    -500000,
		telemetry.ChargeCounter: s.charge,
	})
	s.readings = append(s.readings, r)
	return r
}

func TestSamplerReadsSnapshotOncePerTick(t *testing.T) {
	src := &snapshotSource{Mock: telemetry.NewMock(nil), charge: 3000000}
	d := newRecordingDisplay()
	s := NewSampler(src, &BatteryState{VoltageMillivolts: 4000, LevelPercent: 80}, d, MaxDataPoints)

	tests := []struct {
		summary string
	}{
		{"-500 mA, 4000 mV, 2.00 W\n80%, 2999 mAH remaining"},
		{"-500 mA, 4000 mV, 2.00 W\n80%, 2998 mAH remaining"},
		{"-500 mA, 4000 mV, 2.00 W\n80%, 2997 mAH remaining"},
	}
	for i, tt := range tests {
		require.NoError(t, s.Tick())
		require.Len(t, src.readings, i+1)
		assert.Equal(t, 5, src.readings[i].Reads())
		assert.Equal(t, tt.summary, d.LastSummary())
	}
	assert.Zero(t, src.Mock.Reads())
}

func TestSamplerRequiredCounterUnavailable(t *testing.T) {
	src := dischargingMock()
	src.SetError(telemetry.ChargeCounter, errors.New("no such file"))
	d := newRecordingDisplay()
	s := NewSampler(src, &BatteryState{}, d, MaxDataPoints)

	err := s.Tick()
	require.Error(t, err)
	assert.ErrorIs(t, err, telemetry.ErrTelemetryUnavailable)
	assert.Equal(t, float64(0), s.T())
	assert.Equal(t, 0, d.Calls())

	src.Set(telemetry.ChargeCounter, 3000000)
	require.NoError(t, s.Tick())
	assert.Equal(t, float64(1), s.T())
}

func TestSamplerKeepsFiveMinutes(t *testing.T) {
	d := newRecordingDisplay()
	s := NewSampler(dischargingMock(), &BatteryState{VoltageMillivolts: 4000}, d, MaxDataPoints)

	for i := 0; i < 301; i++ {
		require.NoError(t, s.Tick())
	}

	for _, r := range []*series.Rolling{s.Power(), s.Current()} {
		require.Equal(t, 300, r.Len())
		first, _ := r.First()
		last, _ := r.Last()
		assert.Equal(t, float64(1), first.X)
		assert.Equal(t, float64(300), last.X)
	}
	pts := d.Points(SeriesCurrent)
	require.Len(t, pts, 300)
	assert.Equal(t, float64(1), pts[0].X)
	assert.Equal(t, float64(301), s.T())
}

func TestSamplerScrollsPastWindow(t *testing.T) {
	d := newRecordingDisplay()
	s := NewSampler(dischargingMock(), &BatteryState{}, d, MaxDataPoints)

	for i := 0; i < 123; i++ {
		require.NoError(t, s.Tick())
	}

	for _, name := range SeriesNames() {
		scrolls := d.scrolls[name]
		require.Len(t, scrolls, 123)
		assert.False(t, scrolls[0])
		assert.False(t, scrolls[120], "t == 120 stays inside the window")
		assert.True(t, scrolls[121])
		assert.True(t, scrolls[122])
	}
}

func TestViewports(t *testing.T) {
	power, ok := ViewportFor(SeriesPower)
	require.True(t, ok)
	assert.Equal(t, Viewport{Title: "Watt consumption (W)", MaxX: 120, MaxY: 8, HideXLabels: true}, power)

	current, ok := ViewportFor(SeriesCurrent)
	require.True(t, ok)
	assert.Equal(t, Viewport{Title: "Current discharge (mA)", MaxX: 120, MaxY: 2500}, current)

	_, ok = ViewportFor("voltage")
	assert.False(t, ok)
}

func TestAttachRunsFirstTickImmediately(t *testing.T) {
	withTickInterval(t, time.Hour)

	hub := events.NewEventHub()
	d := newRecordingDisplay()
	v := New(dischargingMock(), notify.NewHubSource(hub), d)

	require.NoError(t, v.Attach(context.Background()))
	defer v.Detach()

	assert.True(t, v.Active())
	require.Eventually(t, func() bool { return len(d.Points(SeriesPower)) == 1 }, time.Second, time.Millisecond)
	assert.Len(t, d.Points(SeriesCurrent), 1)

	d.mu.Lock()
	assert.Len(t, d.viewports, 2)
	d.mu.Unlock()
}

func TestAttachTwiceIsNoop(t *testing.T) {
	withTickInterval(t, time.Hour)

	hub := events.NewEventHub()
	v := New(dischargingMock(), notify.NewHubSource(hub), newRecordingDisplay())

	require.NoError(t, v.Attach(context.Background()))
	require.NoError(t, v.Attach(context.Background()))
	assert.Equal(t, 1, hub.Subscribers())

	v.Detach()
	v.Detach()
	assert.False(t, v.Active())
	assert.Equal(t, 0, hub.Subscribers())
}

func TestAttachSubscribeFailure(t *testing.T) {
	d := newRecordingDisplay()
	d.AppendData(SeriesPower, series.Point{X: 7, Y: 1}, false, MaxDataPoints)

	v := New(dischargingMock(), notify.NewHubSource(nil), d)
	assert.Error(t, v.Attach(context.Background()))
	assert.False(t, v.Active())
	v.Detach()

	// The surface keeps what it showed before.
	assert.Equal(t, 1, d.Calls())
	assert.Equal(t, []series.Point{{X: 7, Y: 1}}, d.Points(SeriesPower))
}

func TestBroadcastFeedsNextTick(t *testing.T) {
	withTickInterval(t, 5*time.Millisecond)

	hub := events.NewEventHub()
	d := newRecordingDisplay()
	v := New(dischargingMock(), notify.NewHubSource(hub), d)

	require.NoError(t, v.Attach(context.Background()))
	defer v.Detach()

	hub.Publish(events.BatteryChanged, events.BatteryChangedEvent{Voltage: 4000, Level: 55, Scale: 100})

	require.Eventually(t, func() bool {
		snap, err := v.Snapshot(context.Background())
		return err == nil && snap.State == BatteryState{VoltageMillivolts: 4000, LevelPercent: 55}
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		return d.LastSummary() == "-500 mA, 4000 mV, 2.00 W\n55%, 3000 mAH remaining"
	}, time.Second, time.Millisecond)
}

func TestTickAdvancesOncePerTick(t *testing.T) {
	withTickInterval(t, 2*time.Millisecond)

	v := New(dischargingMock(), notify.NewHubSource(events.NewEventHub()), newRecordingDisplay())
	require.NoError(t, v.Attach(context.Background()))
	defer v.Detach()

	require.Eventually(t, func() bool {
		snap, err := v.Snapshot(context.Background())
		return err == nil && snap.T >= 10
	}, time.Second, time.Millisecond)

	snap, err := v.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Power, int(snap.T))
	for i, p := range snap.Power {
		assert.Equal(t, float64(i), p.X)
		assert.Equal(t, p.X, snap.Current[i].X)
	}
}

func TestNothingHappensAfterDetach(t *testing.T) {
	withTickInterval(t, time.Millisecond)

	hub := events.NewEventHub()
	d := newRecordingDisplay()
	src := dischargingMock()
	v := New(src, notify.NewHubSource(hub), d)

	require.NoError(t, v.Attach(context.Background()))
	require.Eventually(t, func() bool { return len(d.Points(SeriesPower)) > 5 }, time.Second, time.Millisecond)

	v.Detach()
	assert.False(t, v.Active())
	assert.Equal(t, 0, hub.Subscribers())

	calls, reads := d.Calls(), src.Reads()
	hub.Publish(events.BatteryChanged, events.BatteryChangedEvent{Voltage: 3000, Level: 1, Scale: 100})

	assert.Never(t, func() bool {
		return d.Calls() != calls || src.Reads() != reads
	}, 50*time.Millisecond, 5*time.Millisecond)

	_, err := v.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestReattachStartsFresh(t *testing.T) {
	withTickInterval(t, time.Millisecond)

	hub := events.NewEventHub()
	d := newRecordingDisplay()
	v := New(dischargingMock(), notify.NewHubSource(hub), d)

	require.NoError(t, v.Attach(context.Background()))
	hub.Publish(events.BatteryChanged, events.BatteryChangedEvent{Voltage: 4000, Level: 55, Scale: 100})
	require.Eventually(t, func() bool {
		snap, err := v.Snapshot(context.Background())
		return err == nil && snap.T > 5 && snap.State.VoltageMillivolts == 4000
	}, time.Second, time.Millisecond)
	v.Detach()

	tickInterval = time.Hour
	require.NoError(t, v.Attach(context.Background()))
	defer v.Detach()

	require.Eventually(t, func() bool {
		snap, err := v.Snapshot(context.Background())
		return err == nil && snap.T == 1
	}, time.Second, time.Millisecond)

	snap, err := v.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BatteryState{}, snap.State)
	assert.Equal(t, []series.Point{{X: 0, Y: 0}}, snap.Power)
	assert.Equal(t, []series.Point{{X: 0, Y: 500}}, snap.Current)
	assert.Len(t, d.Points(SeriesPower), 1)
}

func TestContextCancelEndsSession(t *testing.T) {
	withTickInterval(t, time.Hour)

	hub := events.NewEventHub()
	v := New(dischargingMock(), notify.NewHubSource(hub), newRecordingDisplay())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, v.Attach(ctx))
	cancel()

	require.Eventually(t, func() bool { return !v.Active() }, time.Second, time.Millisecond)

	// A later Attach replaces the ended session and drops its subscription.
	require.NoError(t, v.Attach(context.Background()))
	assert.Equal(t, 1, hub.Subscribers())
	v.Detach()
	assert.Equal(t, 0, hub.Subscribers())
}
