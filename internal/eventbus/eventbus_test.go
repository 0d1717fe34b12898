package eventbus

import (
	"testing"

	"github.com/kfranzke/leitstelle/core/events"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Publish(events.Toast{Message: "Libelle 1 cannot be dispatched in fog"})
	got, ok := (<-ch).(events.Toast)
	if !ok {
		t.Fatal("expected a toast event")
	}
	if got.Message != "Libelle 1 cannot be dispatched in fog" {
		t.Fatalf("got %q", got.Message)
	}
	bus.Unsubscribe(ch)
}

func TestBusSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	// Overfill the buffer; the excess must be dropped without stalling.
	for i := 0; i < subscriberBuffer*2; i++ {
		bus.Publish(events.LogEntry{Message: "radio check"})
	}
	if got := len(ch); got != subscriberBuffer {
		t.Fatalf("buffered %d events, want %d", got, subscriberBuffer)
	}
}

func TestBusClose(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatal("first subscriber channel must be closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatal("second subscriber channel must be closed")
	}
	// Publishing after shutdown is a silent no-op.
	bus.Publish(events.Toast{Message: "late"})
}

func TestBusUnsubscribeAfterClose(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}
