package liveview

import (
	"context"
	"errors"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/s2group/batterybomber/pkg/notify"
	"github.com/s2group/batterybomber/pkg/series"
	"github.com/s2group/batterybomber/pkg/telemetry"
)

// ErrNotActive is returned when the live view is not attached.
var ErrNotActive = errors.New("live view is not active")

// Snapshot is a copy of an active session's state.
type Snapshot struct {
	T       float64        `json:"t"`
	State   BatteryState   `json:"state"`
	Power   []series.Point `json:"power"`
	Current []series.Point `json:"current"`
}

// LiveView couples the sampler and the battery state listener to the
// lifetime of a view. Attach starts a session, Detach ends it. Each session
// owns fresh state that a single goroutine serves.
type LiveView struct {
	telemetry     telemetry.Source
	notifications notify.Source
	display       Display

	mu   sync.Mutex
	sess *session
}

type session struct {
	cancel  context.CancelFunc
	done    chan struct{}
	sub     notify.Subscription
	mailbox chan notify.Event
	ctrl    chan chan Snapshot

	state    *BatteryState
	sampler  *Sampler
	listener *Listener
}

// New returns an inactive LiveView.
func New(src telemetry.Source, notifications notify.Source, display Display) *LiveView {
	return &LiveView{
		telemetry:     src,
		notifications: notifications,
		display:       display,
	}
}

// Active reports whether a session is running.
func (v *LiveView) Active() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.sess.running()
}

// Attach starts a session: it allocates the state and both series,
// subscribes to battery changed broadcasts, configures the viewports and
// runs the first tick right away. Attaching an active view does nothing.
//
// The session ends when Detach is called or ctx is cancelled.
func (v *LiveView) Attach(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.sess.running() {
		return nil
	}
	if v.sess != nil {
		// Ended through its context; release the subscription before replacing it.
		v.sess.stop()
		v.sess = nil
	}

	state := &BatteryState{}
	s := &session{
		done:     make(chan struct{}),
		mailbox:  make(chan notify.Event, 1),
		ctrl:     make(chan chan Snapshot),
		state:    state,
		sampler:  NewSampler(v.telemetry, state, v.display, MaxDataPoints),
		listener: NewListener(state),
	}

	sub, err := v.notifications.Subscribe(notify.ActionBatteryChanged, s.post)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to subscribe to battery changes")
	}
	s.sub = sub

	// A failed attach leaves the display as it was.
	for _, name := range SeriesNames() {
		vp, _ := ViewportFor(name)
		v.display.ConfigureViewport(name, vp)
	}

	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)

	v.sess = s
	logrus.Info("live view attached")

	return nil
}

// Detach ends the session. When it returns no tick or broadcast is handled
// anymore and the session's state is gone. Detaching an inactive view does
// nothing.
func (v *LiveView) Detach() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.sess == nil {
		return
	}
	v.sess.stop()
	v.sess = nil

	logrus.Debug("live view destroyed")
}

// Snapshot returns a copy of the running session's state.
func (v *LiveView) Snapshot(ctx context.Context) (Snapshot, error) {
	v.mu.Lock()
	s := v.sess
	v.mu.Unlock()

	if !s.running() {
		return Snapshot{}, ErrNotActive
	}

	reply := make(chan Snapshot, 1)
	select {
	case s.ctrl <- reply:
	case <-s.done:
		return Snapshot{}, ErrNotActive
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (s *session) running() bool {
	if s == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func (s *session) stop() {
	s.sub.Unsubscribe()
	s.cancel()
	<-s.done
}

// post hands a broadcast to the session goroutine. Sources may call it from
// any goroutine and it never blocks: an unhandled older broadcast is dropped
// in favour of ev.
func (s *session) post(ev notify.Event) {
	for {
		select {
		case s.mailbox <- ev:
			return
		default:
		}
		select {
		case <-s.mailbox:
		default:
		}
	}
}

func (s *session) run(ctx context.Context) {
	defer close(s.done)

	// A sticky broadcast may already be waiting.
	select {
	case ev := <-s.mailbox:
		s.listener.OnReceive(ev)
	default:
	}

	failing := false
	tick := func() {
		err := s.sampler.Tick()
		switch {
		case err != nil && !failing:
			logrus.WithError(err).Warn("failed to sample battery telemetry")
		case err == nil && failing:
			logrus.Info("battery telemetry available again")
		}
		failing = err != nil
	}

	tick()
	timer := time.NewTimer(tickInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.mailbox:
			if ctx.Err() != nil {
				return
			}
			s.listener.OnReceive(ev)
		case reply := <-s.ctrl:
			reply <- s.snapshot()
		case <-timer.C:
			if ctx.Err() != nil {
				return
			}
			tick()
			timer.Reset(tickInterval)
		}
	}
}

func (s *session) snapshot() Snapshot {
	return Snapshot{
		T:       s.sampler.T(),
		State:   *s.state,
		Power:   s.sampler.Power().Points(),
		Current: s.sampler.Current().Points(),
	}
}
