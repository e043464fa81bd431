package gui

import (
	"context"
	"time"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/s2group/batterybomber/pkg/client"
	"github.com/s2group/batterybomber/pkg/events"
	"github.com/s2group/batterybomber/pkg/version"
)

// pollInterval is how often the tray resynchronises with the daemon, on
// top of the event stream.
var pollInterval = 10 * time.Second

// NewTrayCommand reads unixSocketPath when it runs, so it follows flags
// parsed after construction.
func NewTrayCommand(unixSocketPath *string, groupID string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tray",
		Short:   "Show the live view in the system tray",
		GroupID: groupID,
		Long: `Show the live battery summary in the system tray.

The tray follows the daemon's live view and can open or close it. Quitting the tray leaves the daemon running.`,
		Run: func(_ *cobra.Command, _ []string) {
			Run(*unixSocketPath)
		},
	}

	return cmd
}

func Run(unixSocketPath string) {
	api := client.NewClient(unixSocketPath)
	logrus.WithField("version", version.Version).WithField("gitCommit", version.GitCommit).Info("batterybomber tray")

	ctx, cancel := context.WithCancel(context.Background())
	systray.Run(func() { onReady(ctx, api) }, func() {
		cancel()
		logrus.Info("tray exiting")
	})
}

type menu struct {
	line1  *systray.MenuItem
	line2  *systray.MenuItem
	toggle *systray.MenuItem
	quit   *systray.MenuItem
}

func onReady(ctx context.Context, api *client.Client) {
	systray.SetTitle("🔋 Loading...")
	systray.SetTooltip("batterybomber - live battery view")

	m := &menu{
		line1: systray.AddMenuItem("Connecting...", "Current draw"),
		line2: systray.AddMenuItem("-", "Level and remaining charge"),
	}
	m.line1.Disable()
	m.line2.Disable()
	systray.AddSeparator()
	m.toggle = systray.AddMenuItem("Open Live View", "Open or close the live view in the daemon")
	systray.AddSeparator()
	m.quit = systray.AddMenuItem("Quit", "Quit the tray, but keep the daemon running")

	go loop(ctx, api, m)
}

// loop owns the tray state. Events, clicks and polls are handled one at a time.
func loop(ctx context.Context, api *client.Client, m *menu) {
	st := &trayState{}
	evCh := api.SubscribeEvents(ctx, events.LiveSummary, events.LivePoint, events.LiveView)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	poll := func() {
		sum, err := api.GetSummary()
		if err != nil {
			logrus.WithError(err).Debug("cannot reach daemon")
			st.connected = false
			return
		}
		st.applySummary(sum)
	}

	poll()
	render(st, m)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-evCh:
			if !ok {
				return
			}
			st.connected = true
			if st.apply(ev) {
				render(st, m)
			}
		case <-m.toggle.ClickedCh:
			msg, err := api.SetView(!st.active)
			if err != nil {
				logrus.WithError(err).Error("failed to toggle live view")
			} else {
				logrus.Info(msg)
			}
			poll()
			render(st, m)
		case <-m.quit.ClickedCh:
			systray.Quit()
			return
		case <-ticker.C:
			poll()
			render(st, m)
		}
	}
}

func render(st *trayState, m *menu) {
	systray.SetTitle(st.title())
	l1, l2 := st.lines()
	m.line1.SetTitle(l1)
	m.line2.SetTitle(l2)
	m.toggle.SetTitle(st.toggleTitle())
	if st.connected {
		m.toggle.Enable()
	} else {
		m.toggle.Disable()
	}
}
