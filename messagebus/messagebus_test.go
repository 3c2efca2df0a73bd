package messagebus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	weakstatic "github.com/hnhuaxi/weakstatic"
	"github.com/stretchr/testify/assert"
)

type BookRoom struct {
	RoomId    string
	GuestName string
	StartAt   time.Time
	EndAt     time.Time
}

type OrderBeer struct {
	RoomId string
	Count  int
}

func newGoBus() *MessageBus {
	publisherMaker, subscriberMaker := weakstatic.GoPubsublisherMaker(weakstatic.GochannelConfig{}, watermill.NopLogger{})

	return NewMessageBus(BusConfig{
		SubscriberMaker: subscriberMaker,
		PublisherMaker:  publisherMaker,
		Logger:          watermill.NopLogger{},
	})
}

func runBus(t *testing.T, bus *MessageBus) {
	go func() {
		assert.NoError(t, bus.Run(context.Background()))
	}()

	select {
	case <-bus.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router not running")
	}
}

func TestBus(t *testing.T) {
	var (
		bus    = newGoBus()
		beers  = make(chan *OrderBeer, 1)
		booked = time.Now()
	)

	bus.AddCmdHandler(weakstatic.NewCmdHandler(func(ctx context.Context, eb *weakstatic.EventBus, cmd *BookRoom) error {
		return eb.Publish(ctx, &OrderBeer{
			RoomId: cmd.RoomId,
			Count:  2,
		})
	}))

	bus.AddEventHandler(weakstatic.NewEventHandler(func(ctx context.Context, evt *OrderBeer) error {
		beers <- evt
		return nil
	}))

	runBus(t, bus)
	defer bus.Close()

	err := bus.CommandBus().Send(context.Background(), &BookRoom{
		RoomId:    "101",
		GuestName: "John",
		StartAt:   booked,
		EndAt:     booked.Add(72 * time.Hour),
	})
	assert.NoError(t, err)

	select {
	case evt := <-beers:
		assert.Equal(t, "101", evt.RoomId)
		assert.Equal(t, 2, evt.Count)
	case <-time.After(5 * time.Second):
		t.Fatal("OrderBeer not handled")
	}
}

func TestRouterNoPublishHandler(t *testing.T) {
	var (
		bus      = newGoBus()
		received = make(chan string, 1)
	)

	sub, err := bus.Subscriber()
	assert.NoError(t, err)

	bus.AddRouterNoPublishHandler("raw", "raw.topic", sub, func(msg *message.Message) error {
		received <- string(msg.Payload)
		return nil
	})

	runBus(t, bus)
	defer bus.Close()

	pub, err := bus.Publisher()
	assert.NoError(t, err)
	assert.NoError(t, pub.Publish("raw.topic", message.NewMessage(watermill.NewUUID(), []byte("ping"))))

	select {
	case payload := <-received:
		assert.Equal(t, "ping", payload)
	case <-time.After(5 * time.Second):
		t.Fatal("raw message not handled")
	}
}

func TestBuildWithoutMakers(t *testing.T) {
	bus := NewMessageBus(BusConfig{})

	err := bus.Build()
	assert.ErrorIs(t, err, weakstatic.ErrMustNotZero)
	assert.NoError(t, bus.Close())
}

func TestBuildRouterOnly(t *testing.T) {
	bus := newGoBus()

	sub, err := bus.Subscriber()
	assert.NoError(t, err)

	bus.AddRouterNoPublishHandler("raw", "raw.topic", sub, func(msg *message.Message) error {
		return nil
	})

	assert.NoError(t, bus.Build())
	assert.NotNil(t, bus.CommandBus())
	assert.NotNil(t, bus.EventBus())
	assert.NotNil(t, bus.Router())
}

func TestBuildCommandsOnly(t *testing.T) {
	bus := newGoBus()

	bus.AddCmdHandler(weakstatic.NewCmdHandler(func(ctx context.Context, eb *weakstatic.EventBus, cmd *BookRoom) error {
		return nil
	}))

	assert.NoError(t, bus.Build())
	assert.NoError(t, bus.Build())
	assert.NotNil(t, bus.EventBus())
}
