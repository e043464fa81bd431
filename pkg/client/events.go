package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/s2group/batterybomber/pkg/events"
)

// reconnectDelay is how long SubscribeEvents waits before reconnecting.
var reconnectDelay = 2 * time.Second

// SubscribeEvents streams daemon events until ctx is cancelled, reconnecting
// when the stream breaks. If names are given only those events are
// delivered. The returned channel is closed when ctx is done.
func (c *Client) SubscribeEvents(ctx context.Context, names ...string) <-chan events.Event {
	out := make(chan events.Event, 16)

	go func() {
		defer close(out)
		for {
			err := c.streamEvents(ctx, names, out)
			if ctx.Err() != nil {
				return
			}
			logrus.WithError(err).Debug("event stream ended, reconnecting")

			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
		}
	}()

	return out
}

func (c *Client) streamEvents(ctx context.Context, names []string, out chan<- events.Event) error {
	path := "/events"
	if len(names) > 0 {
		q := url.Values{}
		for _, n := range names {
			q.Add("name", n)
		}
		path += "?" + q.Encode()
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, "")
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("got %d from event stream", resp.StatusCode)
	}

	return readEvents(ctx, resp.Body, out)
}

// readEvents parses a server-sent event stream. Only the event and data
// fields are used; multiple data lines are joined with newlines.
func readEvents(ctx context.Context, r io.Reader, out chan<- events.Event) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var name string
	var data []string
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			if len(data) > 0 {
				ev := events.Event{Name: name, Data: []byte(strings.Join(data, "\n"))}
				select {
				case out <- ev:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			name, data = "", nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}
