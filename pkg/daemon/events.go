package daemon

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// getEvents streams hub events as server-sent events until the client goes
// away or the daemon shuts down. Repeat the name query parameter to receive
// only some events.
func getEvents(c *gin.Context) {
	wanted := make(map[string]bool)
	for _, n := range c.QueryArray("name") {
		wanted[n] = true
	}

	ch := sseHub.Subscribe()
	defer sseHub.Unsubscribe(ch)

	logrus.WithField("names", c.QueryArray("name")).Debug("event stream opened")
	defer logrus.Debug("event stream closed")

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-daemonCtx.Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			if len(wanted) > 0 && !wanted[ev.Name] {
				return true
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		}
	})
}
