// Package transport turns the message queue section of the configuration
// into publisher and subscriber makers, and into weak statics sharing them.
package transport

import (
	"github.com/AlexCuse/watermill-jetstream/pkg/jetstream"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	weakstatic "github.com/hnhuaxi/weakstatic"
	"github.com/hnhuaxi/weakstatic/driver/amqp"
	confluent "github.com/hnhuaxi/weakstatic/driver/kafka"
	"github.com/hnhuaxi/weakstatic/driver/nats"
	"github.com/hnhuaxi/weakstatic/driver/nsq"
	"github.com/hnhuaxi/weakstatic/resource"
	"github.com/hnhuaxi/weakstatic/singleton"
	"github.com/pkg/errors"
)

// Makers returns the makers for cfg.Driver. No connection is opened here.
func Makers(cfg weakstatic.MessageQueueConfig, logger watermill.LoggerAdapter) (weakstatic.PublisherMaker, weakstatic.SubscriberMaker, error) {
	if logger == nil {
		logger = weakstatic.Logger
	}

	switch cfg.Driver {
	case "gochannel":
		pub, sub := weakstatic.GoPubsublisherMaker(weakstatic.GochannelConfig{}, logger)
		return pub, sub, nil
	case "kafka":
		var kcfg = cfg.Kafka

		return weakstatic.KafkaPublisherMaker(kafka.PublisherConfig{
				Brokers:   kcfg.Brokers,
				Marshaler: kafka.DefaultMarshaler{},
			}, logger), weakstatic.KafkaSubscriberMaker(kafka.SubscriberConfig{
				Brokers:       kcfg.Brokers,
				Unmarshaler:   kafka.DefaultMarshaler{},
				ConsumerGroup: kcfg.Group,
			}, logger), nil
	case "confluent":
		var kcfg = cfg.Kafka

		return confluent.PublisherMaker(confluent.PublisherConfig{
				Brokers: kcfg.Brokers,
			}, logger), confluent.SubscriberMaker(confluent.SubscribeConfig{
				Brokers:     kcfg.Brokers,
				Group:       kcfg.Group,
				OffsetReset: kcfg.OffsetReset,
			}, logger), nil
	case "nats":
		return nats.NatsPublisherMaker(nats.PublisherConfig(cfg.Nats), logger),
			nats.NatsSubscriberMaker(nats.SubscriberConfig(cfg.Nats), logger), nil
	case "jetstream":
		var ncfg = cfg.Nats

		return func() (weakstatic.Publisher, error) {
				return jetstream.NewPublisher(
					jetstream.PublisherConfig{
						URL:       ncfg.Addr,
						Marshaler: jetstream.JSONMarshaler{},
					},
					logger,
				)
			}, func() (weakstatic.Subscriber, error) {
				return jetstream.NewSubscriber(
					jetstream.SubscriberConfig{
						URL:            ncfg.Addr,
						CloseTimeout:   ncfg.CloseTimeout,
						AckWaitTimeout: ncfg.AckWaitTimeout,
						Unmarshaler:    jetstream.JSONMarshaler{},
					},
					logger,
				)
			}, nil
	case "nsq":
		return nsq.NsqPublisherMaker(nsq.NsqPublisherConfig{
				Addr: cfg.Nsq.Addr,
			}, logger), nsq.NsqSubscriberMaker(nsq.NsqSubscribeConfig{
				Addr:    cfg.Nsq.Addr,
				Channel: cfg.Nsq.Channel,
			}, logger), nil
	case "rabbitmq":
		return amqp.PublisherMaker(cfg.Rabbitmq.Addr, logger),
			amqp.SubscriberMaker(cfg.Rabbitmq.Addr, logger), nil
	default:
		return nil, nil, errors.Wrapf(weakstatic.ErrInvalidDriverType, "message queue driver %q", cfg.Driver)
	}
}

// Statics declares a shared publisher "<name>.publisher" and a shared
// subscriber "<name>.subscriber" for cfg.
func Statics(name string, cfg weakstatic.MessageQueueConfig, logger watermill.LoggerAdapter, opts ...singleton.Option) (*singleton.Static[weakstatic.Publisher], *singleton.Static[weakstatic.Subscriber], error) {
	pubMaker, subMaker, err := Makers(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	return resource.Publisher(name+".publisher", pubMaker, opts...),
		resource.Subscriber(name+".subscriber", subMaker, opts...), nil
}
