package kafka

import (
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	weakstatic "github.com/hnhuaxi/weakstatic"
	"go.uber.org/atomic"
)

type PublisherConfig struct {
	Brokers []string
	// FlushTimeoutMs bounds how long Close waits for queued messages.
	FlushTimeoutMs int `default:"5000"`
}

func PublisherMaker(cfg PublisherConfig, logger watermill.LoggerAdapter) weakstatic.PublisherMaker {
	if logger == nil {
		logger = weakstatic.Logger
	}
	if cfg.FlushTimeoutMs == 0 {
		cfg.FlushTimeoutMs = 5000
	}

	return func() (weakstatic.Publisher, error) {
		p, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": strings.Join(cfg.Brokers, ",")})
		if err != nil {
			return nil, err
		}

		return &kafkaPublisher{
			log:   logger,
			p:     p,
			flush: cfg.FlushTimeoutMs,
		}, nil
	}
}

type kafkaPublisher struct {
	p     *kafka.Producer
	log   watermill.LoggerAdapter
	flush int
	start atomic.Bool
}

// init starts the delivery report reader once.
func (pub *kafkaPublisher) init() {
	if !pub.start.CompareAndSwap(false, true) {
		return
	}

	go func() {
		for e := range pub.p.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					pub.log.Error("delivery failed", ev.TopicPartition.Error, watermill.LogFields{"partition": ev.TopicPartition.String()})
				} else {
					pub.log.Trace("delivered message", watermill.LogFields{"partition": ev.TopicPartition.String()})
				}
			}
		}
	}()
}

// Publish must be thread safe.
func (pub *kafkaPublisher) Publish(topic string, messages ...*message.Message) error {
	pub.init()

	for _, msg := range messages {
		if err := pub.p.Produce(&kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
			Key:            []byte(msg.UUID),
			Value:          []byte(msg.Payload),
		}, nil); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes queued messages before closing the producer.
func (pub *kafkaPublisher) Close() error {
	if remaining := pub.p.Flush(pub.flush); remaining > 0 {
		pub.log.Info("closing with unflushed messages", watermill.LogFields{"remaining": remaining})
	}
	pub.p.Close()
	return nil
}
