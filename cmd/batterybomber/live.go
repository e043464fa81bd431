package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/s2group/batterybomber/pkg/config"
	"github.com/s2group/batterybomber/pkg/daemon"
	"github.com/s2group/batterybomber/pkg/display"
	"github.com/s2group/batterybomber/pkg/events"
	"github.com/s2group/batterybomber/pkg/liveview"
)

func NewLiveCommand() *cobra.Command {
	chartDir := ""

	cmd := &cobra.Command{
		Use:     "live",
		Short:   "Show the live view in this terminal",
		GroupID: gBasic,
		Long: `Show the live view in this terminal, without a daemon.

The battery is sampled once per second until you press Ctrl-C. Sources are taken from the config file. With --save-charts, the power and current charts are written as PNG files on exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := config.NewFile(configPath)
			if err != nil {
				return err
			}
			if err := conf.Validate(); err != nil {
				return pkgerrors.Wrapf(err, "invalid config %s", configPath)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := events.NewEventHub()
			src, err := daemon.NewTelemetrySource(conf)
			if err != nil {
				return err
			}
			notifications, release, err := daemon.NewNotificationSource(ctx, conf, hub)
			if err != nil {
				return err
			}
			defer release()

			rec := display.NewRecorder(hub)
			out := display.Multi{
				display.NewTerminal(cmd.OutOrStdout(), term.IsTerminal(int(os.Stdout.Fd()))),
				rec,
			}

			v := liveview.New(src, notifications, out)
			if err := v.Attach(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			v.Detach()

			if chartDir == "" {
				return nil
			}
			return saveCharts(rec, display.NewChartRenderer(conf.ChartWidth(), conf.ChartHeight()), chartDir)
		},
	}

	cmd.Flags().StringVar(&chartDir, "save-charts", "", "Directory to write power.png and current.png to on exit")

	return cmd
}

func saveCharts(rec *display.Recorder, r *display.ChartRenderer, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return pkgerrors.Wrapf(err, "failed to create %s", dir)
	}

	for _, name := range liveview.SeriesNames() {
		s, ok := rec.Series(name)
		if !ok {
			continue
		}
		p := filepath.Join(dir, string(name)+".png")
		f, err := os.Create(p)
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to create %s", p)
		}
		err = r.Render(f, s)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to write %s chart", name)
		}
		logrus.WithField("path", p).Info("chart saved")
	}
	return nil
}
