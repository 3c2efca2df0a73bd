// Package messagebus bundles a watermill router with the cqrs command and
// event buses and processors built over one pair of publisher and
// subscriber makers.
package messagebus

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"
	"github.com/akrennmair/slice"
	weakstatic "github.com/hnhuaxi/weakstatic"
	"github.com/pkg/errors"
)

type MessageBus struct {
	mu         sync.Mutex
	config     BusConfig
	built      bool
	router     *weakstatic.Router
	commandBus *cqrs.CommandBus
	eventBus   *cqrs.EventBus
}

type RouterHandler struct {
	HandleName       string
	SubscribeTopic   string
	Subscriber       weakstatic.Subscriber
	PublishTopic     string
	Publisher        weakstatic.Publisher
	Handler          weakstatic.HandlerFunc
	NopublishHandler weakstatic.NoPublishHandlerFunc
	NoPublish        bool
}

type BusConfig struct {
	CommandHandlers      []weakstatic.CommandHandler
	CommandHandlerMakers []weakstatic.CommandHandlerMaker
	EventHandlers        []weakstatic.EventHandler
	EventHandlerMakers   []weakstatic.EventHandlerMaker
	RouterHandlers       []RouterHandler
	EventsName           string

	PublisherMaker   weakstatic.PublisherMaker
	SubscriberMaker  weakstatic.SubscriberMaker
	RouterConfig     *weakstatic.RouterConfig
	CommandMarshaler weakstatic.CommandEventMarshaler
	Logger           watermill.LoggerAdapter

	// Retry is the router retry policy; zero MaxRetries disables retries.
	Retry middleware.Retry
	// Signals closes the router on SIGINT/SIGTERM.
	Signals bool
}

var (
	DefaultMarshaler    = weakstatic.JSONMarshaler
	DefaultRouterConfig = &weakstatic.RouterConfig{}
	DefaultRetry        = middleware.Retry{
		MaxRetries:      3,
		MaxElapsedTime:  3 * time.Minute,
		InitialInterval: 10 * time.Second,
	}
	DefaultConfig = BusConfig{
		RouterConfig:     DefaultRouterConfig,
		Logger:           weakstatic.Logger,
		CommandMarshaler: DefaultMarshaler,
		Retry:            DefaultRetry,
	}
)

const DefaultEventsTopic = "events"

func NewMessageBus(config BusConfig) *MessageBus {
	if config.CommandMarshaler == nil {
		config.CommandMarshaler = DefaultMarshaler
	}

	if config.Logger == nil {
		config.Logger = weakstatic.Logger
	}

	if config.RouterConfig == nil {
		config.RouterConfig = DefaultRouterConfig
	}

	if config.EventsName == "" {
		config.EventsName = DefaultEventsTopic
	}

	return &MessageBus{
		config: config,
	}
}

// Build creates the router and the buses. Handlers added afterwards are
// ignored. Calling Build again is a no-op.
func (bus *MessageBus) Build() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.built {
		return nil
	}

	if bus.config.PublisherMaker == nil || bus.config.SubscriberMaker == nil {
		return errors.Wrap(weakstatic.ErrMustNotZero, "message bus needs a publisher and a subscriber maker")
	}

	commandsPublisher, err := bus.config.PublisherMaker()
	if err != nil {
		return errors.Wrap(err, "commands publisher")
	}

	eventsPublisher, err := bus.config.PublisherMaker()
	if err != nil {
		return errors.Wrap(err, "events publisher")
	}

	eventsSubscriber, err := bus.config.SubscriberMaker()
	if err != nil {
		return errors.Wrap(err, "events subscriber")
	}

	router, err := message.NewRouter(*bus.config.RouterConfig, bus.config.Logger)
	if err != nil {
		return errors.Wrap(err, "router")
	}

	var (
		// one topic per command type
		commandsTopic = func(commandName string) string {
			return commandName
		}
		// one topic for every event
		eventsTopic = func(eventName string) string {
			return bus.config.EventsName
		}
		marshaler = bus.config.CommandMarshaler
		logger    = bus.config.Logger
	)

	commandBus, err := cqrs.NewCommandBus(commandsPublisher, commandsTopic, marshaler)
	if err != nil {
		return errors.Wrap(err, "command bus")
	}

	eventBus, err := cqrs.NewEventBus(eventsPublisher, eventsTopic, marshaler)
	if err != nil {
		return errors.Wrap(err, "event bus")
	}

	if bus.config.Signals {
		router.AddPlugin(plugin.SignalsHandler)
	}
	router.AddMiddleware(middleware.Recoverer)
	if bus.config.Retry.MaxRetries > 0 {
		router.AddMiddleware(bus.config.Retry.Middleware)
	}

	// processors refuse an empty handler list, a router-only bus has none
	if handlers := bus.commandHandlers(commandBus, eventBus); len(handlers) > 0 {
		processor, err := cqrs.NewCommandProcessor(handlers, commandsTopic, func(handlerName string) (message.Subscriber, error) {
			return bus.config.SubscriberMaker()
		}, marshaler, logger)
		if err != nil {
			return errors.Wrap(err, "command processor")
		}
		if err := processor.AddHandlersToRouter(router); err != nil {
			return errors.Wrap(err, "command processor")
		}
	}

	if handlers := bus.eventHandlers(commandBus, eventBus); len(handlers) > 0 {
		processor, err := cqrs.NewEventProcessor(handlers, eventsTopic, func(handlerName string) (message.Subscriber, error) {
			return eventsSubscriber, nil
		}, marshaler, logger)
		if err != nil {
			return errors.Wrap(err, "event processor")
		}
		if err := processor.AddHandlersToRouter(router); err != nil {
			return errors.Wrap(err, "event processor")
		}
	}

	for _, h := range bus.config.RouterHandlers {
		if !h.NoPublish {
			router.AddHandler(h.HandleName, h.SubscribeTopic, h.Subscriber, h.PublishTopic, h.Publisher, h.Handler)
		} else {
			router.AddNoPublisherHandler(h.HandleName, h.SubscribeTopic, h.Subscriber, h.NopublishHandler)
		}
	}

	bus.commandBus = commandBus
	bus.eventBus = eventBus
	bus.router = router
	bus.built = true
	return nil
}

func (bus *MessageBus) commandHandlers(cb *cqrs.CommandBus, eb *cqrs.EventBus) []cqrs.CommandHandler {
	var handlers = make([]cqrs.CommandHandler, 0)

	handlers = append(handlers, slice.Map(bus.config.CommandHandlers, func(cmdHandler weakstatic.CommandHandler) cqrs.CommandHandler {
		cmdHandler.SetEventBus(eb)
		return cmdHandler
	})...)

	handlers = append(handlers, slice.Map(bus.config.CommandHandlerMakers, func(maker weakstatic.CommandHandlerMaker) cqrs.CommandHandler {
		return maker(cb, eb)
	})...)

	return handlers
}

func (bus *MessageBus) eventHandlers(cb *cqrs.CommandBus, eb *cqrs.EventBus) []cqrs.EventHandler {
	var handlers = make([]cqrs.EventHandler, 0)

	handlers = append(handlers, slice.Map(bus.config.EventHandlers, func(evtHandler weakstatic.EventHandler) cqrs.EventHandler {
		evtHandler.SetCommandBus(cb)
		return evtHandler
	})...)

	handlers = append(handlers, slice.Map(bus.config.EventHandlerMakers, func(maker weakstatic.EventHandlerMaker) cqrs.EventHandler {
		return maker(cb, eb)
	})...)

	return handlers
}

func (bus *MessageBus) mustBuild() {
	if err := bus.Build(); err != nil {
		panic(err)
	}
}

// CommandBus builds the bus on first use and panics if that fails; call
// Build first to get the error instead.
func (bus *MessageBus) CommandBus() *cqrs.CommandBus {
	bus.mustBuild()
	return bus.commandBus
}

func (bus *MessageBus) EventBus() *cqrs.EventBus {
	bus.mustBuild()
	return bus.eventBus
}

func (bus *MessageBus) AddCmdHandler(handler weakstatic.CommandHandler) *MessageBus {
	bus.config.CommandHandlers = append(bus.config.CommandHandlers, handler)
	return bus
}

func (bus *MessageBus) AddCmdHandlerMaker(handler weakstatic.CommandHandlerMaker) *MessageBus {
	bus.config.CommandHandlerMakers = append(bus.config.CommandHandlerMakers, handler)
	return bus
}

func (bus *MessageBus) AddEventHandler(handler weakstatic.EventHandler) *MessageBus {
	bus.config.EventHandlers = append(bus.config.EventHandlers, handler)
	return bus
}

func (bus *MessageBus) AddEventHandlerMaker(handler weakstatic.EventHandlerMaker) *MessageBus {
	bus.config.EventHandlerMakers = append(bus.config.EventHandlerMakers, handler)
	return bus
}

// Run blocks until ctx is done or the router is closed.
func (bus *MessageBus) Run(ctx context.Context) error {
	if err := bus.Build(); err != nil {
		return err
	}

	return bus.router.Run(ctx)
}

// Running is closed once every handler is subscribed.
func (bus *MessageBus) Running() chan struct{} {
	bus.mustBuild()
	return bus.router.Running()
}

func (bus *MessageBus) Close() error {
	bus.mu.Lock()
	router := bus.router
	bus.mu.Unlock()

	if router == nil {
		return nil
	}
	return router.Close()
}

func (bus *MessageBus) Subscriber() (weakstatic.Subscriber, error) {
	return bus.config.SubscriberMaker()
}

func (bus *MessageBus) Publisher() (weakstatic.Publisher, error) {
	return bus.config.PublisherMaker()
}

func (bus *MessageBus) AddRouterHandler(
	handlerName string,
	subscribeTopic string, subscriber weakstatic.Subscriber,
	publishTopic string, publisher weakstatic.Publisher,
	handle weakstatic.HandlerFunc,
) {
	bus.config.RouterHandlers = append(bus.config.RouterHandlers, RouterHandler{
		HandleName:     handlerName,
		SubscribeTopic: subscribeTopic,
		Subscriber:     subscriber,
		PublishTopic:   publishTopic,
		Publisher:      publisher,
		Handler:        handle,
	})
}

func (bus *MessageBus) AddRouterNoPublishHandler(
	handlerName string,
	subscribeTopic string, subscriber weakstatic.Subscriber,
	handle weakstatic.NoPublishHandlerFunc,
) {
	bus.config.RouterHandlers = append(bus.config.RouterHandlers, RouterHandler{
		HandleName:       handlerName,
		SubscribeTopic:   subscribeTopic,
		Subscriber:       subscriber,
		NopublishHandler: handle,
		NoPublish:        true,
	})
}

func (bus *MessageBus) Router() *weakstatic.Router {
	bus.mustBuild()
	return bus.router
}
