package transport

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	weakstatic "github.com/hnhuaxi/weakstatic"
	"github.com/stretchr/testify/assert"
)

func TestMakersForEveryDriver(t *testing.T) {
	cfg := weakstatic.DefaultConfig().MessageQueue

	for _, driver := range []string{"gochannel", "kafka", "confluent", "nats", "jetstream", "nsq", "rabbitmq"} {
		cfg.Driver = driver
		pub, sub, err := Makers(cfg, watermill.NopLogger{})
		assert.NoError(t, err, driver)
		assert.NotNil(t, pub, driver)
		assert.NotNil(t, sub, driver)
	}
}

func TestMakersInvalidDriver(t *testing.T) {
	cfg := weakstatic.DefaultConfig().MessageQueue
	cfg.Driver = "carrier-pigeon"

	_, _, err := Makers(cfg, nil)
	assert.ErrorIs(t, err, weakstatic.ErrInvalidDriverType)

	_, _, err = Statics("lifecycle", cfg, nil)
	assert.ErrorIs(t, err, weakstatic.ErrInvalidDriverType)
}

func TestGochannelStatics(t *testing.T) {
	var (
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		cfg         = weakstatic.DefaultConfig().MessageQueue
	)
	defer cancel()

	pub, sub, err := Statics(t.Name(), cfg, watermill.NopLogger{})
	assert.NoError(t, err)
	assert.Equal(t, t.Name()+".publisher", pub.Name())
	assert.Equal(t, t.Name()+".subscriber", sub.Name())

	sh := sub.MustAcquire()
	defer sh.Release()

	messages, err := sh.Value().Subscribe(ctx, cfg.Topic)
	assert.NoError(t, err)

	ph := pub.MustAcquire()
	assert.NoError(t, ph.Value().Publish(cfg.Topic, message.NewMessage(watermill.NewUUID(), []byte("{}"))))
	assert.NoError(t, ph.Release())

	select {
	case msg := <-messages:
		assert.Equal(t, "{}", string(msg.Payload))
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}
