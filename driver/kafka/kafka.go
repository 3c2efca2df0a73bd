package kafka

import (
	"context"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/creasty/defaults"
	weakstatic "github.com/hnhuaxi/weakstatic"
	"go.uber.org/atomic"
)

type SubscribeConfig struct {
	Brokers     []string
	Group       string
	OffsetReset string        `default:"earliest"`
	PollTimeout time.Duration `default:"100ms"`
}

func SubscriberMaker(cfg SubscribeConfig, logger watermill.LoggerAdapter) weakstatic.SubscriberMaker {
	if logger == nil {
		logger = weakstatic.Logger
	}

	return func() (weakstatic.Subscriber, error) {
		cfg := cfg
		if err := defaults.Set(&cfg); err != nil {
			return nil, err
		}

		c, err := kafka.NewConsumer(&kafka.ConfigMap{
			"bootstrap.servers": strings.Join(cfg.Brokers, ","),
			"group.id":          cfg.Group,
			"auto.offset.reset": cfg.OffsetReset,
		})
		if err != nil {
			return nil, err
		}

		return &kafkaSubscriber{
			log:  logger,
			c:    c,
			poll: cfg.PollTimeout,
		}, nil
	}
}

type kafkaSubscriber struct {
	log    watermill.LoggerAdapter
	c      *kafka.Consumer
	poll   time.Duration
	closed atomic.Bool
}

func (sub *kafkaSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if err := sub.c.SubscribeTopics([]string{topic}, nil); err != nil {
		return nil, err
	}

	var ch = make(chan *message.Message, 1)

	go func() {
		defer close(ch)

		for !sub.closed.Load() && ctx.Err() == nil {
			msg, err := sub.c.ReadMessage(sub.poll)
			if err != nil {
				if kerr, ok := err.(kafka.Error); ok && kerr.Code() == kafka.ErrTimedOut {
					continue
				}
				sub.log.Error("read message error", err, watermill.LogFields{"topic": topic})
				continue
			}

			if _, err := sub.c.CommitMessage(msg); err != nil {
				sub.log.Error("commit offset error", err, watermill.LogFields{"topic": topic})
			}

			select {
			case ch <- message.NewMessage(watermill.NewUUID(), msg.Value):
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

func (sub *kafkaSubscriber) Close() error {
	if !sub.closed.CompareAndSwap(false, true) {
		return nil
	}
	return sub.c.Close()
}
