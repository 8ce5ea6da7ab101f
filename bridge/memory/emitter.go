package memory

import (
	"sync"

	"github.com/myket-community/bridge-server/bridge"
	"github.com/myket-community/bridge-server/iab"
	"github.com/myket-community/bridge-server/model"
)

// Event is one recorded emission.
type Event struct {
	Name string
	Data model.Object
}

// Emitter is an in-memory bridge.EventEmitter that records every emission
// in order.
type Emitter struct {
	mu     sync.Mutex
	events []Event
}

func NewEmitter() *Emitter {
	return &Emitter{}
}

func (e *Emitter) Emit(event string, data model.Object) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, Event{Name: event, Data: data})
}

// Events returns a snapshot of everything emitted so far.
func (e *Emitter) Events() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Event, len(e.events))
	copy(out, e.events)
	return out
}

// States returns just the state tags of the recorded events, in order.
func (e *Emitter) States() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.events))
	for _, ev := range e.events {
		if s, ok := ev.Data["state"].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

var _ bridge.EventEmitter = (*Emitter)(nil)

// Activity is a trivial activity handle for tests and the sandbox binary.
type Activity struct {
	Name string
}

// NewActivityProvider returns a provider handing out a fixed activity.
func NewActivityProvider() bridge.ActivityProvider {
	act := &Activity{Name: "memory"}
	return bridge.ActivityProviderFunc(func() iab.Activity { return act })
}
