package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/hnhuaxi/weakstatic/driver/kafka"
	"github.com/hnhuaxi/weakstatic/resource"
	"github.com/hnhuaxi/weakstatic/singleton"
	"go.uber.org/zap"
)

var (
	brokers string
	topic   string
)

func init() {
	flag.StringVar(&brokers, "brokers", "localhost:9092", "kafka bootstrap servers")
	flag.StringVar(&topic, "topic", "weakstatic.lifecycle", "topic to read")
}

func main() {
	flag.Parse()

	var (
		logger, _ = zap.NewDevelopment()
		consumer  = resource.Subscriber("kafka.consumer", kafka.SubscriberMaker(kafka.SubscribeConfig{
			Brokers: []string{brokers},
			Group:   "example",
		}, nil), singleton.WithObserver(singleton.LogObserver(logger)))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// the consumer is closed when the last handle is released
	sub, err := consumer.Acquire()
	if err != nil {
		log.Fatalf("create subscriber error %s", err)
	}
	defer sub.Release()

	chmsg, err := sub.Value().Subscribe(ctx, topic)
	if err != nil {
		log.Fatalf("subscribe topic '%s' error %s", topic, err)
	}

	log.Printf("waiting messages")
	for msg := range chmsg {
		log.Printf("msg %s", string(msg.Payload))
		msg.Ack()
	}
}
