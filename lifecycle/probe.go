package lifecycle

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	weakstatic "github.com/hnhuaxi/weakstatic"
	"github.com/hnhuaxi/weakstatic/messagebus"
	"github.com/hnhuaxi/weakstatic/singleton"
	"github.com/hnhuaxi/weakstatic/transport"
)

// ProbeHandler answers ProbeStatic with a StaticProbed event carrying the
// static's current stats. Probing never acquires the static.
func ProbeHandler() *weakstatic.CmdHandler[ProbeStatic] {
	return weakstatic.NewCmdHandler(func(ctx context.Context, eb *weakstatic.EventBus, cmd *ProbeStatic) error {
		probed := &StaticProbed{Static: cmd.Static}

		if s, ok := singleton.Lookup(cmd.Static); ok {
			probed.Found = true
			probed.Stats = s.Stats()
		}

		return eb.Publish(ctx, probed)
	})
}

// Bus returns a message bus over the configured transport whose events
// share the lifecycle topic, with the probe handler installed. Further
// event handlers, such as ones consuming InstanceCreated, are added by the
// caller before Run.
func Bus(cfg weakstatic.MessageQueueConfig, logger watermill.LoggerAdapter) (*messagebus.MessageBus, error) {
	pubMaker, subMaker, err := transport.Makers(cfg, logger)
	if err != nil {
		return nil, err
	}

	bus := messagebus.NewMessageBus(messagebus.BusConfig{
		PublisherMaker:  pubMaker,
		SubscriberMaker: subMaker,
		EventsName:      cfg.Topic,
		Logger:          logger,
		Retry:           messagebus.DefaultRetry,
	})

	bus.AddCmdHandler(ProbeHandler())
	return bus, nil
}
