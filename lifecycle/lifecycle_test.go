package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	weakstatic "github.com/hnhuaxi/weakstatic"
	"github.com/hnhuaxi/weakstatic/messagebus"
	"github.com/hnhuaxi/weakstatic/singleton"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	created chan *InstanceCreated
	dropped chan *InstanceDropped
	probed  chan *StaticProbed
}

func newRecorder(bus *messagebus.MessageBus) *recorder {
	r := &recorder{
		created: make(chan *InstanceCreated, 8),
		dropped: make(chan *InstanceDropped, 8),
		probed:  make(chan *StaticProbed, 8),
	}

	bus.AddEventHandler(weakstatic.NewEventHandler(func(ctx context.Context, evt *InstanceCreated) error {
		r.created <- evt
		return nil
	}))
	bus.AddEventHandler(weakstatic.NewEventHandler(func(ctx context.Context, evt *InstanceDropped) error {
		r.dropped <- evt
		return nil
	}))
	bus.AddEventHandler(weakstatic.NewEventHandler(func(ctx context.Context, evt *StaticProbed) error {
		r.probed <- evt
		return nil
	}))

	return r
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("no %T received", *new(T))
	}

	var zero T
	return zero
}

func startBus(t *testing.T) (*messagebus.MessageBus, *recorder, weakstatic.MessageQueueConfig) {
	cfg := weakstatic.DefaultConfig().MessageQueue

	bus, err := Bus(cfg, watermill.NopLogger{})
	assert.NoError(t, err)

	rec := newRecorder(bus)

	go func() {
		assert.NoError(t, bus.Run(context.Background()))
	}()

	select {
	case <-bus.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("bus not running")
	}

	t.Cleanup(func() {
		bus.Close()
	})

	return bus, rec, cfg
}

func TestNotifierPublishesLifecycle(t *testing.T) {
	bus, rec, cfg := startBus(t)

	notifier, err := BusNotifier(t.Name()+".publisher", bus, cfg.Topic, nil)
	assert.NoError(t, err)

	s := singleton.DeclareFunc(t.Name(), func() int { return 7 }, singleton.WithObserver(notifier))

	h := s.MustAcquire()
	created := receive(t, rec.created)
	assert.Equal(t, t.Name(), created.Static)
	assert.Equal(t, uint64(1), created.Generation)
	assert.False(t, created.At.IsZero())

	assert.NoError(t, h.Release())
	dropped := receive(t, rec.dropped)
	assert.Equal(t, t.Name(), dropped.Static)
	assert.Equal(t, uint64(1), dropped.Generation)
	assert.Empty(t, dropped.Error)

	h = s.MustAcquire()
	assert.Equal(t, uint64(2), receive(t, rec.created).Generation)
	assert.NoError(t, h.Release())
	assert.Equal(t, uint64(2), receive(t, rec.dropped).Generation)
}

func TestNotifierReportsTeardownError(t *testing.T) {
	bus, rec, cfg := startBus(t)

	notifier, err := BusNotifier(t.Name()+".publisher", bus, cfg.Topic, nil)
	assert.NoError(t, err)

	s := singleton.DeclareFunc(t.Name(), func() string { return "conn" },
		singleton.WithObserver(notifier),
		singleton.WithTeardown(func(string) error { return errors.New("close refused") }),
	)

	h := s.MustAcquire()
	receive(t, rec.created)

	assert.Error(t, h.Release())
	assert.Contains(t, receive(t, rec.dropped).Error, "close refused")
}

func TestProbe(t *testing.T) {
	bus, rec, _ := startBus(t)

	s := singleton.DeclareFunc(t.Name(), func() int { return 1 })
	h := s.MustAcquire()
	defer h.Release()
	h2 := h.Clone()
	defer h2.Release()

	assert.NoError(t, bus.CommandBus().Send(context.Background(), &ProbeStatic{Static: t.Name()}))

	probed := receive(t, rec.probed)
	assert.True(t, probed.Found)
	assert.Equal(t, t.Name(), probed.Stats.Name)
	assert.True(t, probed.Stats.Live)
	assert.Equal(t, int32(2), probed.Stats.Refs)
	assert.Equal(t, uint64(1), probed.Stats.Generation)

	assert.NoError(t, bus.CommandBus().Send(context.Background(), &ProbeStatic{Static: "never.acquired"}))

	probed = receive(t, rec.probed)
	assert.False(t, probed.Found)
	assert.Equal(t, "never.acquired", probed.Static)
}

func TestBusInvalidDriver(t *testing.T) {
	cfg := weakstatic.DefaultConfig().MessageQueue
	cfg.Driver = "smoke-signals"

	_, err := Bus(cfg, nil)
	assert.ErrorIs(t, err, weakstatic.ErrInvalidDriverType)
}
