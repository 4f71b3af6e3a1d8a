package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher. Handlers run asynchronously on
// the dispatcher's goroutines, in publish order per subscriber. Different
// subscribers have separate queues, so there is no order between them.
// Events that must stay ordered relative to each other share one type, see
// OtaEvent.
type Bus struct {
	dispatcher *event.Dispatcher
}

func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish delivers ev to all subscribers of its type. Unknown event types
// are dropped.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case OtaBeginEvent, OtaProgressEvent, OtaEndEvent, OtaErrorEvent:
		// one queue per subscriber for the whole OTA lifecycle
		event.Publish(b.dispatcher, OtaEvent{Event: e})
	case OtaEvent:
		event.Publish(b.dispatcher, e)
	case RemoteLinkEvent:
		event.Publish(b.dispatcher, e)
	case LocalNetworkEvent:
		event.Publish(b.dispatcher, e)
	case HealthEvent:
		event.Publish(b.dispatcher, e)
	case UserColorEvent:
		event.Publish(b.dispatcher, e)
	case UserClearEvent:
		event.Publish(b.dispatcher, e)
	case ReloadRequestedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler for the event type named by its parameter.
// It returns the unsubscribe function, a no-op for unknown handler types.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(OtaEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(OtaBeginEvent):
		return subscribeOta(b, h)
	case func(OtaProgressEvent):
		return subscribeOta(b, h)
	case func(OtaEndEvent):
		return subscribeOta(b, h)
	case func(OtaErrorEvent):
		return subscribeOta(b, h)
	case func(RemoteLinkEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LocalNetworkEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(HealthEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(UserColorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(UserClearEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ReloadRequestedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

// subscribeOta unwraps the OTA envelope for handlers of a single OTA event.
func subscribeOta[T Event](b *Bus, handler func(T)) func() {
	return event.Subscribe(b.dispatcher, func(e OtaEvent) {
		if inner, ok := e.Event.(T); ok {
			handler(inner)
		}
	})
}
