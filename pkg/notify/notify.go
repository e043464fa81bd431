package notify

import "github.com/s2group/batterybomber/pkg/events"

// ActionBatteryChanged is broadcast whenever the battery state changes.
const ActionBatteryChanged = events.BatteryChanged

// Extra keys carried by ActionBatteryChanged.
const (
	ExtraVoltage = "voltage" // millivolts
	ExtraLevel   = "level"
	ExtraScale   = "scale"
)

// Event is a delivered broadcast.
type Event struct {
	Action string
	Extras map[string]int
}

// IntExtra returns the extra named key, or def if it is absent.
func (e Event) IntExtra(key string, def int) int {
	v, ok := e.Extras[key]
	if !ok {
		return def
	}
	return v
}

// Handler receives broadcasts. Sources may call it from any goroutine.
type Handler func(Event)

// Subscription is a registered handler. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

// Source delivers broadcasts for a named action.
type Source interface {
	Subscribe(action string, h Handler) (Subscription, error)
}

// SubscriptionFunc adapts a plain function to Subscription.
type SubscriptionFunc func()

func (f SubscriptionFunc) Unsubscribe() { f() }
