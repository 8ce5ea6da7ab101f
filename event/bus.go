package event

import (
	"sync"
)

type Handler[Key, Event any] interface {
	OnEvent(key Key, e Event)
}

// HandlerFunc is an adapter to allow the use of ordinary
// functions as Handlers.
type HandlerFunc[Key, Event any] func(Key, Event)

// OnEvent calls f(key, e).
func (f HandlerFunc[Key, Event]) OnEvent(key Key, e Event) {
	f(key, e)
}

// Bus fans events out to registered handlers. Delivery is synchronous and in
// emission order, so a single handler observes events in the order they were
// published; handlers that must not block the publisher decouple through a
// Stream.
type Bus[Key, Event any] struct {
	handlersMu sync.RWMutex
	handlers   map[uint64]Handler[Key, Event]
	nextID     uint64
}

func NewBus[Key, Event any]() *Bus[Key, Event] {
	return &Bus[Key, Event]{
		handlers: make(map[uint64]Handler[Key, Event]),
	}
}

// AddHandler registers h and returns a func that removes it again.
// Subscribers registered mid-stream only see later events.
func (b *Bus[Key, Event]) AddHandler(h Handler[Key, Event]) (remove func()) {
	b.handlersMu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.handlersMu.Unlock()

	return func() {
		b.handlersMu.Lock()
		delete(b.handlers, id)
		b.handlersMu.Unlock()
	}
}

func (b *Bus[Key, Event]) OnEvent(key Key, e Event) {
	b.handlersMu.RLock()
	// Copy handlers to prevent race conditions
	handlers := make([]Handler[Key, Event], 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.handlersMu.RUnlock()

	// Execute handlers outside the lock
	for _, h := range handlers {
		h.OnEvent(key, e)
	}
}
