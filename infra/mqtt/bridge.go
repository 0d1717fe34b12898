package mqtt

import (
	"context"
	"encoding/json"

	"github.com/kfranzke/leitstelle/core/events"
	"github.com/kfranzke/leitstelle/core/model"
	"github.com/kfranzke/leitstelle/infra/logger"
	"github.com/kfranzke/leitstelle/internal/eventbus"
)

// Publisher is the minimal surface the bridge needs from the MQTT client.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Bridge subscribes to the simulation event bus and forwards events to
// MQTT presentation topics.
type Bridge struct {
	pub    Publisher
	bus    eventbus.EventBus
	prefix string
	log    logger.Logger
}

// NewBridge creates an event bridge. prefix is prepended to all topics,
// e.g. "leitstelle" yields "leitstelle/radio".
func NewBridge(pub Publisher, bus eventbus.EventBus, prefix string) *Bridge {
	if prefix == "" {
		prefix = "leitstelle"
	}
	return &Bridge{pub: pub, bus: bus, prefix: prefix, log: logger.New("mqtt_bridge")}
}

// Run consumes bus events until the context is canceled or the bus closes.
func (b *Bridge) Run(ctx context.Context) {
	sub := b.bus.Subscribe()
	defer b.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			b.forward(ev)
		}
	}
}

func (b *Bridge) forward(ev eventbus.Event) {
	var topic string
	switch ev.(type) {
	case events.RadioMessage:
		topic = b.prefix + "/radio"
	case events.LogEntry:
		topic = b.prefix + "/log"
	case events.WeatherChanged:
		topic = b.prefix + "/weather"
	case events.Toast:
		topic = b.prefix + "/toast"
	case model.Call:
		topic = b.prefix + "/calls"
	default:
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		b.log.Errorf("marshal event: %v", err)
		return
	}
	if err := b.pub.Publish(topic, payload); err != nil {
		b.log.Errorf("publish %s: %v", topic, err)
	}
}
