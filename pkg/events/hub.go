package events

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

const subscriberQueueLen = 16

// EventHub fans out published events to every subscriber. Events published
// with PublishRetained are also replayed to subscribers that join later.
type EventHub struct {
	mu       sync.RWMutex
	subs     map[chan Event]struct{}
	retained map[string]Event
}

func NewEventHub() *EventHub {
	return &EventHub{
		subs:     make(map[chan Event]struct{}),
		retained: make(map[string]Event),
	}
}

func (h *EventHub) Subscribe() chan Event {
	ch := make(chan Event, subscriberQueueLen)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	for _, ev := range h.retained {
		select {
		case ch <- ev:
		default:
		}
	}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Subscribers returns the current number of subscribers.
func (h *EventHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *EventHub) Publish(name string, payload any) {
	h.publish(name, payload, false)
}

// PublishRetained publishes like Publish and keeps the event as the latest
// value for name.
func (h *EventHub) PublishRetained(name string, payload any) {
	h.publish(name, payload, true)
}

func (h *EventHub) publish(name string, payload any, retain bool) {
	if h == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).WithField("event", name).Warn("failed to marshal event payload")
		return
	}
	msg := Event{Name: name, Data: b}

	if retain {
		h.mu.Lock()
		h.retained[name] = msg
		h.mu.Unlock()
	}

	h.mu.RLock()
	for ch := range h.subs {
		// Non-blocking send; drop if subscriber is slow
		select {
		case ch <- msg:
		default:
		}
	}
	h.mu.RUnlock()
}
