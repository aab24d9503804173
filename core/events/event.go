package events

import (
	"sync"

	"carbonmarket/core/types"
)

// Event represents a structured state change emitted by the marketplace.
type Event interface {
	EventType() string
}

// Payload is implemented by events that expose a flattened attribute record.
type Payload interface {
	Event
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. metrics, indexers).
// Emit has no error return: a failing subscriber can never undo the state
// change that produced the event.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Multi fans a single event out to every wrapped emitter in order. Nil entries
// are skipped.
type Multi []Emitter

// Emit implements the Emitter interface.
func (m Multi) Emit(evt Event) {
	for _, emitter := range m {
		if emitter == nil {
			continue
		}
		emitter.Emit(evt)
	}
}

// Recorder keeps every emitted event in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events in emission order.
func (r *Recorder) Events() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in emission order.
func (r *Recorder) Types() []string {
	recorded := r.Events()
	out := make([]string, 0, len(recorded))
	for _, evt := range recorded {
		out = append(out, evt.EventType())
	}
	return out
}

// Records returns the flattened payloads of every recorded event that exposes
// one.
func (r *Recorder) Records() []*types.Event {
	recorded := r.Events()
	out := make([]*types.Event, 0, len(recorded))
	for _, evt := range recorded {
		payload, ok := evt.(Payload)
		if !ok {
			continue
		}
		if record := payload.Event(); record != nil {
			out = append(out, record.Clone())
		}
	}
	return out
}

// Reset drops every recorded event.
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
