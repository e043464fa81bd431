package daemon

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/s2group/batterybomber/pkg/config"
	"github.com/s2group/batterybomber/pkg/display"
	"github.com/s2group/batterybomber/pkg/liveview"
	"github.com/s2group/batterybomber/pkg/types"
	"github.com/s2group/batterybomber/pkg/version"
)

func getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

func getBatteryInfo(c *gin.Context) {
	info, err := batteryInfo()
	if err != nil {
		logrus.Errorf("getBatteryInfo failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.IndentedJSON(http.StatusOK, info)
}

func getView(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, view.Active())
}

func setView(c *gin.Context) {
	var open bool
	if err := c.BindJSON(&open); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if !open {
		closeView()
		logrus.Info("live view closed")
		c.IndentedJSON(http.StatusCreated, "live view closed")
		return
	}

	if err := openView(); err != nil {
		logrus.Errorf("openView failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	logrus.Info("live view opened")
	c.IndentedJSON(http.StatusCreated, "live view opened")
}

func getSummary(c *gin.Context) {
	text, updated := recorder.Summary()
	resp := types.LiveSummary{Text: text}
	if !updated.IsZero() {
		resp.UpdatedAt = updated.Unix()
	}

	snap, err := view.Snapshot(c.Request.Context())
	switch {
	case err == nil:
		resp.Active = true
		resp.T = snap.T
		resp.VoltageMillivolts = snap.State.VoltageMillivolts
		resp.LevelPercent = snap.State.LevelPercent
	case errors.Is(err, liveview.ErrNotActive):
	default:
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.IndentedJSON(http.StatusOK, resp)
}

func seriesParam(c *gin.Context) (display.SeriesSnapshot, bool) {
	name := c.Param("name")
	s, ok := recordedSeries(liveview.SeriesName(name))
	if !ok {
		err := fmt.Errorf("unknown series %q", name)
		c.IndentedJSON(http.StatusNotFound, err.Error())
		_ = c.AbortWithError(http.StatusNotFound, err)
		return display.SeriesSnapshot{}, false
	}
	return s, true
}

func getSeries(c *gin.Context) {
	s, ok := seriesParam(c)
	if !ok {
		return
	}
	c.IndentedJSON(http.StatusOK, toLiveSeries(s))
}

func getChart(c *gin.Context) {
	s, ok := seriesParam(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := display.NewChartRenderer(conf.ChartWidth(), conf.ChartHeight()).Render(&buf, s); err != nil {
		logrus.Errorf("getChart failed: %v", err)
		c.IndentedJSON(http.StatusInternalServerError, err.Error())
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	c.Data(http.StatusOK, "image/png", buf.Bytes())
}
