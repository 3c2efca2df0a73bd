package amqp

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v2/pkg/amqp"
	weakstatic "github.com/hnhuaxi/weakstatic"
)

// SubscriberMaker opens a durable-queue subscriber on every call; wrap it in
// a weak static to share one connection.
func SubscriberMaker(addr string, logger watermill.LoggerAdapter) weakstatic.SubscriberMaker {
	if logger == nil {
		logger = weakstatic.Logger
	}

	return func() (weakstatic.Subscriber, error) {
		return amqp.NewSubscriber(amqp.NewDurableQueueConfig(addr), logger)
	}
}

func PublisherMaker(addr string, logger watermill.LoggerAdapter) weakstatic.PublisherMaker {
	if logger == nil {
		logger = weakstatic.Logger
	}

	return func() (weakstatic.Publisher, error) {
		return amqp.NewPublisher(amqp.NewDurableQueueConfig(addr), logger)
	}
}
