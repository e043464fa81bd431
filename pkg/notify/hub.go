package notify

import (
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/s2group/batterybomber/pkg/events"
)

var _ Source = &HubSource{}

// HubSource delivers broadcasts published on an events.EventHub. Payloads are
// decoded as flat JSON objects of integers and exposed as extras.
type HubSource struct {
	hub *events.EventHub
}

// NewHubSource returns a Source backed by hub.
func NewHubSource(hub *events.EventHub) *HubSource {
	return &HubSource{hub: hub}
}

// Subscribe implements Source.
func (s *HubSource) Subscribe(action string, h Handler) (Subscription, error) {
	if s.hub == nil {
		return nil, pkgerrors.New("event hub is nil")
	}
	if h == nil {
		return nil, pkgerrors.New("handler is nil")
	}

	ch := s.hub.Subscribe()
	go func() {
		for ev := range ch {
			if ev.Name != action {
				continue
			}
			extras, err := events.DecodeAs[map[string]int](ev)
			if err != nil {
				logrus.WithError(err).WithField("event", ev.Name).Warn("dropping malformed broadcast")
				continue
			}
			h(Event{Action: ev.Name, Extras: extras})
		}
	}()

	var once sync.Once
	return SubscriptionFunc(func() {
		once.Do(func() { s.hub.Unsubscribe(ch) })
	}), nil
}
