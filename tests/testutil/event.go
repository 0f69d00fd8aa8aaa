package testutil

import (
	"context"
	"sync"

	"github.com/joinville/accounts/internal/domain/shared"
)

// EventRecorder is a shared.EventHandler that keeps every event it receives.
// Subscribe it to a bus to assert on what a flow published.
type EventRecorder struct {
	mu         sync.Mutex
	eventTypes []string
	received   []shared.DomainEvent
	err        error
}

// NewEventRecorder records the given event types, or every type when none
// is given.
func NewEventRecorder(eventTypes ...string) *EventRecorder {
	return &EventRecorder{eventTypes: eventTypes}
}

func (r *EventRecorder) EventTypes() []string {
	return r.eventTypes
}

func (r *EventRecorder) Handle(_ context.Context, event shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, event)
	return r.err
}

// Fail makes Handle return err after recording
func (r *EventRecorder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Events returns a copy of the recorded events
func (r *EventRecorder) Events() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shared.DomainEvent(nil), r.received...)
}

// Count returns how many events of eventType were recorded
func (r *EventRecorder) Count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.received {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}
