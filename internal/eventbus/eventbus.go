// Package eventbus carries the simulation's presentation events (radio
// traffic, log lines, toasts, weather changes) from the tick loop to
// consumers such as the MQTT bridge. Publishing never blocks the tick: a
// subscriber that falls behind loses events rather than stalling the
// simulation.
package eventbus

import "sync"

// Event is any value emitted by a subsystem. Consumers type-switch on the
// concrete event structs from core/events.
type Event interface{}

// EventBus is the publish side handed to the simulation subsystems and the
// subscribe side handed to presentation consumers.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// subscriberBuffer absorbs short bursts, roughly one busy tick's worth of
// radio traffic across the fleet.
const subscriberBuffer = 16

// Bus fans published events out to every subscriber channel.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

// New creates an empty bus.
func New() *Bus { return &Bus{} }

// Publish delivers the event to every subscriber whose buffer has room and
// drops it for the rest. A closed bus swallows events silently.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a consumer and returns its receive channel. On a
// closed bus the returned channel is already closed.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe detaches the consumer and closes its channel. Unknown or
// already-detached channels are ignored.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close shuts the bus down at end of shift, closing every subscriber
// channel. Further publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.mu.Unlock()
}
