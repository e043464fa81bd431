package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/s2group/batterybomber/pkg/display"
	"github.com/s2group/batterybomber/pkg/events"
)

func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Short:   "Follow the daemon's live view",
		GroupID: gBasic,
		Long: `Follow the daemon's live view until you press Ctrl-C.

Summaries are printed as the daemon produces them. The view itself is not opened; use 'batterybomber view open' for that.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Fail early when the daemon is unreachable; the stream would retry forever.
			if _, err := apiClient.GetVersion(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := display.NewTerminal(cmd.OutOrStdout(), term.IsTerminal(int(os.Stdout.Fd())))
			for ev := range apiClient.SubscribeEvents(ctx, events.LiveSummary, events.LiveView) {
				switch ev.Name {
				case events.LiveSummary:
					s, err := events.DecodeAs[events.LiveSummaryEvent](ev)
					if err != nil {
						logrus.WithError(err).Warn("bad summary event")
						continue
					}
					out.SetSummary(s.Summary)
				case events.LiveView:
					v, err := events.DecodeAs[events.LiveViewEvent](ev)
					if err != nil {
						logrus.WithError(err).Warn("bad live view event")
						continue
					}
					if v.Active {
						cmd.Println(color.GreenString("live view opened"))
					} else {
						cmd.Println(color.RedString("live view closed"))
					}
					// Start a fresh block instead of overwriting the notice.
					out = display.NewTerminal(cmd.OutOrStdout(), term.IsTerminal(int(os.Stdout.Fd())))
				}
			}
			return nil
		},
	}
}
