// Package lifecycle publishes weak static lifecycle transitions as cqrs
// events and answers probes about statics over the same bus.
package lifecycle

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	weakstatic "github.com/hnhuaxi/weakstatic"
	"github.com/hnhuaxi/weakstatic/messagebus"
	"github.com/hnhuaxi/weakstatic/resource"
	"github.com/hnhuaxi/weakstatic/singleton"
	"go.uber.org/zap"
)

// PublishTimeout bounds one event publish from an observer callback.
var PublishTimeout = 10 * time.Second

// Notifier is a singleton.Observer turning Created and Dropped into
// InstanceCreated and InstanceDropped events. Publish failures are logged
// and never reach the static being observed.
//
// The publisher is a weak static acquired per event. A Notifier must not
// observe its own publisher static.
type Notifier struct {
	bus *cqrs.EventBus
	log *zap.SugaredLogger
	now func() time.Time
}

func NewNotifier(publisher *singleton.Static[weakstatic.Publisher], topic string, log *zap.Logger) (*Notifier, error) {
	if log == nil {
		log = zap.NewNop()
	}

	bus, err := cqrs.NewEventBus(staticPublisher{publisher}, func(string) string {
		return topic
	}, weakstatic.JSONMarshaler)
	if err != nil {
		return nil, err
	}

	return &Notifier{
		bus: bus,
		log: log.Sugar(),
		now: time.Now,
	}, nil
}

func (n *Notifier) publish(event interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
	defer cancel()

	if err := n.bus.Publish(ctx, event); err != nil {
		n.log.Warnf("publish %T: %s", event, err)
	}
}

func (n *Notifier) Created(name string, generation uint64) {
	n.publish(&InstanceCreated{
		Static:     name,
		Generation: generation,
		At:         n.now(),
	})
}

func (n *Notifier) Dropped(name string, generation uint64, err error) {
	evt := &InstanceDropped{
		Static:     name,
		Generation: generation,
		At:         n.now(),
	}
	if err != nil {
		evt.Error = err.Error()
	}

	n.publish(evt)
}

// staticPublisher holds the underlying publisher only while a Publish is
// in flight.
type staticPublisher struct {
	static *singleton.Static[weakstatic.Publisher]
}

func (p staticPublisher) Publish(topic string, messages ...*message.Message) error {
	return p.static.With(func(pub weakstatic.Publisher) error {
		return pub.Publish(topic, messages...)
	})
}

func (staticPublisher) Close() error { return nil }

// BusNotifier publishes through bus, declaring a publisher static called
// name over bus's publisher maker.
func BusNotifier(name string, bus *messagebus.MessageBus, topic string, log *zap.Logger) (*Notifier, error) {
	return NewNotifier(resource.Publisher(name, bus.Publisher), topic, log)
}
