package nats

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/pkg/nats"
	weakstatic "github.com/hnhuaxi/weakstatic"
	"github.com/nats-io/stan.go"
)

type (
	StreamingPublisherConfig  = nats.StreamingPublisherConfig
	StreamingSubscriberConfig = nats.StreamingSubscriberConfig
	GobMarshaler              = nats.GobMarshaler
)

func SubscriberConfig(cfg weakstatic.NatsConfig) StreamingSubscriberConfig {
	return StreamingSubscriberConfig{
		ClusterID:        cfg.ClusterID,
		ClientID:         cfg.ClientID + "-sub",
		QueueGroup:       cfg.QueueGroup,
		DurableName:      cfg.DurableName,
		SubscribersCount: 1,
		CloseTimeout:     cfg.CloseTimeout,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		StanOptions: []stan.Option{
			stan.NatsURL(cfg.Addr),
		},
		Unmarshaler: GobMarshaler{},
	}
}

func PublisherConfig(cfg weakstatic.NatsConfig) StreamingPublisherConfig {
	return StreamingPublisherConfig{
		ClusterID: cfg.ClusterID,
		ClientID:  cfg.ClientID + "-pub",
		StanOptions: []stan.Option{
			stan.NatsURL(cfg.Addr),
		},
		Marshaler: GobMarshaler{},
	}
}

func NatsSubscriberMaker(cfg StreamingSubscriberConfig, logger watermill.LoggerAdapter) weakstatic.SubscriberMaker {
	if logger == nil {
		logger = weakstatic.Logger
	}

	return func() (weakstatic.Subscriber, error) {
		return nats.NewStreamingSubscriber(cfg, logger)
	}
}

func NatsPublisherMaker(cfg StreamingPublisherConfig, logger watermill.LoggerAdapter) weakstatic.PublisherMaker {
	if logger == nil {
		logger = weakstatic.Logger
	}

	return func() (weakstatic.Publisher, error) {
		return nats.NewStreamingPublisher(cfg, logger)
	}
}
