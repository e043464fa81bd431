package client

import (
	"encoding/json"
	"net/url"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"github.com/s2group/batterybomber/pkg/config"
	"github.com/s2group/batterybomber/pkg/powerinfo"
	"github.com/s2group/batterybomber/pkg/types"
)

func getJSON[T any](c *Client, path string, what string) (*T, error) {
	ret, err := c.Get(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get %s", what)
	}

	var v T
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal %s", what)
	}
	return &v, nil
}

// SetView opens or closes the live view.
func (c *Client) SetView(open bool) (string, error) {
	ret, err := c.Put("/view", strconv.FormatBool(open))
	if err != nil {
		return "", err
	}
	return unquote(ret), nil
}

// GetView reports whether the live view is open.
func (c *Client) GetView() (bool, error) {
	ret, err := c.Get("/view")
	if err != nil {
		return false, pkgerrors.Wrapf(err, "failed to get live view status")
	}
	return parseBoolResponse(ret)
}

func (c *Client) GetSummary() (*types.LiveSummary, error) {
	return getJSON[types.LiveSummary](c, "/summary", "live summary")
}

func (c *Client) GetSeries(name string) (*types.LiveSeries, error) {
	return getJSON[types.LiveSeries](c, "/series/"+url.PathEscape(name), name+" series")
}

// GetChart returns the named series rendered as PNG.
func (c *Client) GetChart(name string) ([]byte, error) {
	ret, err := c.Get("/chart/" + url.PathEscape(name))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get %s chart", name)
	}
	return []byte(ret), nil
}

func (c *Client) GetBatteryInfo() (*powerinfo.Battery, error) {
	return getJSON[powerinfo.Battery](c, "/battery-info", "battery info")
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	return getJSON[config.RawFileConfig](c, "/config", "config")
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	return unquote(ret), nil
}

// unquote strips the quotes around a JSON string response.
func unquote(s string) string {
	var v string
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

func parseBoolResponse(resp string) (bool, error) {
	switch resp {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, pkgerrors.Errorf("unexpected response: %s", resp)
	}
}
