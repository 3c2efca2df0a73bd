package weakstatic

import (
	"github.com/Shopify/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Pubsublisher interface {
	Publisher
	Subscriber
}

// Makers are the initializers of shared transports: each call opens a new
// connection, the weak static around it decides when that happens.
type (
	PublisherMaker      func() (Publisher, error)
	SubscriberMaker     func() (Subscriber, error)
	CommandHandlerMaker func(commandBus *CommandBus, eventBus *EventBus) CommandHandler
	EventHandlerMaker   func(commandBus *CommandBus, eventBus *EventBus) EventHandler
)

type GochannelConfig = gochannel.Config

func orDefault(logger watermill.LoggerAdapter) watermill.LoggerAdapter {
	if logger == nil {
		return Logger
	}
	return logger
}

// GoPubsublisherMaker returns makers sharing one in-process channel pubsub,
// so everything published through the first is seen by the second.
func GoPubsublisherMaker(config GochannelConfig, logger watermill.LoggerAdapter) (PublisherMaker, SubscriberMaker) {
	pubSub := gochannel.NewGoChannel(
		config,
		orDefault(logger),
	)

	return func() (Publisher, error) {
			return nopCloser{pubSub}, nil
		}, func() (Subscriber, error) {
			return nopCloser{pubSub}, nil
		}
}

// nopCloser keeps a shared gochannel open when one of its holders is dropped.
type nopCloser struct {
	*gochannel.GoChannel
}

func (nopCloser) Close() error { return nil }

func KafkaPublisherMaker(cfg kafka.PublisherConfig, logger watermill.LoggerAdapter) PublisherMaker {
	publishConfig := kafka.DefaultSaramaSyncPublisherConfig()
	publishConfig.Producer.Return.Errors = true

	if cfg.Marshaler == nil {
		cfg.Marshaler = kafka.DefaultMarshaler{}
	}

	return func() (Publisher, error) {
		return kafka.NewPublisher(
			kafka.PublisherConfig{
				Brokers:               cfg.Brokers,
				Marshaler:             cfg.Marshaler,
				OverwriteSaramaConfig: publishConfig,
			},
			orDefault(logger),
		)
	}
}

func KafkaSubscriberMaker(cfg kafka.SubscriberConfig, logger watermill.LoggerAdapter) SubscriberMaker {
	subscribeConfig := kafka.DefaultSaramaSubscriberConfig()
	subscribeConfig.Consumer.Return.Errors = true
	subscribeConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	subscribeConfig.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRange

	if cfg.Unmarshaler == nil {
		cfg.Unmarshaler = kafka.DefaultMarshaler{}
	}

	return func() (Subscriber, error) {
		return kafka.NewSubscriber(
			kafka.SubscriberConfig{
				Brokers:               cfg.Brokers,
				Unmarshaler:           cfg.Unmarshaler,
				OverwriteSaramaConfig: subscribeConfig,
				ConsumerGroup:         cfg.ConsumerGroup,
			},
			orDefault(logger),
		)
	}
}
