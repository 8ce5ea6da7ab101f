package web

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/myket-community/bridge-server/bridge"
	"github.com/myket-community/bridge-server/event"
	"github.com/myket-community/bridge-server/model"
)

// Event is one named emission crossing the hub.
type Event struct {
	Name string
	Data model.Object
}

// EventHub implements bridge.EventEmitter over the event bus and hands out
// per-subscriber streams for SSE connections. Delivery is best-effort: a
// subscriber that cannot keep up is dropped, never the publisher.
type EventHub struct {
	log           *zap.Logger
	bus           *event.Bus[string, Event]
	notifyTimeout time.Duration
	bufferSize    int
}

func NewEventHub(log *zap.Logger, notifyTimeout time.Duration, bufferSize int) *EventHub {
	return &EventHub{
		log:           log,
		bus:           event.NewBus[string, Event](),
		notifyTimeout: notifyTimeout,
		bufferSize:    bufferSize,
	}
}

func (h *EventHub) Emit(name string, data model.Object) {
	h.bus.OnEvent(name, Event{Name: name, Data: data})
}

// Subscribe registers a new stream on the hub. cancel detaches and closes
// it; it must run when the subscriber goes away.
func (h *EventHub) Subscribe() (stream *event.BufferedStream[Event], cancel func()) {
	stream = event.NewBufferedStream[Event](uuid.NewString(), h.bufferSize)

	remove := h.bus.AddHandler(event.HandlerFunc[string, Event](func(_ string, e Event) {
		if err := stream.Notify(e, h.notifyTimeout); err != nil {
			h.log.Debug("Dropping event subscriber",
				zap.String("stream_id", stream.ID()),
				zap.Error(err),
			)
		}
	}))

	return stream, func() {
		remove()
		stream.Close()
	}
}

var _ bridge.EventEmitter = (*EventHub)(nil)
