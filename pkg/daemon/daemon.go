package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/s2group/batterybomber/pkg/config"
	"github.com/s2group/batterybomber/pkg/display"
	"github.com/s2group/batterybomber/pkg/events"
	"github.com/s2group/batterybomber/pkg/liveview"
	"github.com/s2group/batterybomber/pkg/powerinfo"
	"github.com/s2group/batterybomber/pkg/telemetry"
)

var (
	conf     config.Config
	sseHub   *events.EventHub
	recorder *display.Recorder
	view     *liveview.LiveView
	// daemonCtx is cancelled on shutdown. Live view sessions and event
	// streams end with it.
	daemonCtx = context.Background()

	batteryInfo = func() (*powerinfo.Battery, error) {
		return telemetry.NewBattery(conf.BatteryIndex()).Info()
	}
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/config", getConfig)
	router.GET("/version", getVersion)
	router.GET("/battery-info", getBatteryInfo)
	router.GET("/view", getView)
	router.PUT("/view", setView)
	router.GET("/summary", getSummary)
	router.GET("/series/:name", getSeries)
	router.GET("/chart/:name", getChart)
	router.GET("/events", getEvents)

	return router
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	var err error
	conf, err = config.NewFile(configPath)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to parse config during startup")
	}
	if err := conf.Validate(); err != nil {
		return pkgerrors.Wrapf(err, "invalid config %s", configPath)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	daemonCtx = ctx

	sseHub = events.NewEventHub()

	src, err := NewTelemetrySource(conf)
	if err != nil {
		return err
	}
	notifications, stopNotifications, err := NewNotificationSource(ctx, conf, sseHub)
	if err != nil {
		return err
	}
	defer stopNotifications()

	recorder = display.NewRecorder(sseHub)
	view = liveview.New(src, notifications, recorder)

	// Receive SIGHUP to reload config. Sources are bound at startup, so only
	// the chart size and access settings take effect without a restart.
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := conf.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			if err := conf.Validate(); err != nil {
				logrus.Errorf("reloaded config is invalid: %v", err)
				continue
			}
			logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")
		}
	}()

	srv := &http.Server{
		Handler: setupRoutes(),
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to listen on %s", unixSocketPath)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to change permissions of %s", unixSocketPath)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	if conf.OpenOnStart() {
		if err := openView(); err != nil {
			logrus.WithError(err).Error("failed to open live view")
		}
	}

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("closing live view")
	closeView()

	// Ends event streams so that Shutdown does not wait for them.
	cancel()

	logrus.Info("shutting down http server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	shutdownCancel()

	logrus.Info("exiting")
	return nil
}
