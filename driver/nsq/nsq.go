package nsq

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	weakstatic "github.com/hnhuaxi/weakstatic"
	"github.com/nsqio/go-nsq"
	"github.com/pkg/errors"
)

type NsqSubscribeConfig struct {
	Channel     string
	Addr        string
	Unmarshaler Unmarshaler
}

type NsqSubscriber struct {
	config  NsqSubscribeConfig
	logger  watermill.LoggerAdapter
	doneCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NsqSubscriberMaker(cfg NsqSubscribeConfig, logger watermill.LoggerAdapter) weakstatic.SubscriberMaker {
	if logger == nil {
		logger = weakstatic.Logger
	}
	if cfg.Unmarshaler == nil {
		cfg.Unmarshaler = GobMarshaler{}
	}

	return func() (weakstatic.Subscriber, error) {
		doneCtx, cancel := context.WithCancel(context.Background())
		return &NsqSubscriber{
			config:  cfg,
			doneCtx: doneCtx,
			cancel:  cancel,
			logger:  logger,
		}, nil
	}
}

type nsqHandler struct {
	ctx       context.Context
	out       chan *message.Message
	unmarshal Unmarshaler
	logger    watermill.LoggerAdapter
}

// HandleMessage blocks until the watermill message is acked or nacked, so
// nsq redelivers what was not processed.
func (h *nsqHandler) HandleMessage(m *nsq.Message) error {
	msg, err := h.unmarshal.Unmarshal(m)
	if err != nil {
		h.logger.Error("unmarshal nsq message to message.Message error", err, watermill.LogFields{})
		return nil
	}

	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()
	msg.SetContext(ctx)

	select {
	case h.out <- msg:
	case <-h.ctx.Done():
		return h.ctx.Err()
	}

	select {
	case <-msg.Acked():
		return nil
	case <-msg.Nacked():
		return errors.New("message nacked")
	case <-h.ctx.Done():
		return h.ctx.Err()
	}
}

// Subscribe returns output channel with messages from provided topic.
// The channel is closed when ctx is done or the subscriber is closed.
func (sub *NsqSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	consumer, err := nsq.NewConsumer(topic, sub.config.Channel, nsq.NewConfig())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	var handler = &nsqHandler{
		ctx:       ctx,
		out:       make(chan *message.Message),
		unmarshal: sub.config.Unmarshaler,
		logger:    sub.logger,
	}
	consumer.AddHandler(handler)

	if err = consumer.ConnectToNSQD(sub.config.Addr); err != nil {
		cancel()
		return nil, err
	}

	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		defer close(handler.out)
		defer cancel()

		select {
		case <-ctx.Done():
			sub.logger.Trace("on nsq subscriber close", watermill.LogFields{"topic": topic})
		case <-sub.doneCtx.Done():
			sub.logger.Trace("on nsq subscriber all close", watermill.LogFields{"topic": topic})
			cancel()
		}
		consumer.Stop()
		<-consumer.StopChan
	}()

	return handler.out, nil
}

// Close ends every subscription and waits for the consumers to stop.
func (sub *NsqSubscriber) Close() error {
	sub.cancel()
	sub.wg.Wait()
	return nil
}

type NsqPublisher struct {
	config   NsqPublisherConfig
	producer *nsq.Producer
	logger   watermill.LoggerAdapter
}

type NsqPublisherConfig struct {
	Addr      string
	Marshaler Marshaler
}

func NsqPublisherMaker(cfg NsqPublisherConfig, logger watermill.LoggerAdapter) weakstatic.PublisherMaker {
	if logger == nil {
		logger = weakstatic.Logger
	}
	if cfg.Marshaler == nil {
		cfg.Marshaler = GobMarshaler{}
	}

	return func() (weakstatic.Publisher, error) {
		producer, err := nsq.NewProducer(cfg.Addr, nsq.NewConfig())
		if err != nil {
			return nil, err
		}

		return &NsqPublisher{
			config:   cfg,
			producer: producer,
			logger:   logger,
		}, nil
	}
}

// Publish is synchronous: it returns after nsqd acknowledged every message.
func (pub *NsqPublisher) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		messageFields := watermill.LogFields{
			"message_uuid": msg.UUID,
			"topic_name":   topic,
		}

		pub.logger.Trace("Publishing message", messageFields)

		b, err := pub.config.Marshaler.Marshal(topic, msg)
		if err != nil {
			return err
		}

		if err := pub.producer.Publish(topic, b); err != nil {
			return errors.Wrap(err, "sending message failed")
		}
	}

	return nil
}

func (pub *NsqPublisher) Close() error {
	pub.producer.Stop()
	return nil
}
