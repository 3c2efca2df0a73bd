package weakstatic

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
)

// CommandHandler is a cqrs command handler that gets the event bus injected
// when a message bus is built.
type CommandHandler interface {
	cqrs.CommandHandler
	SetEventBus(*EventBus)
}

// EventHandler is a cqrs event handler that gets the command bus injected.
type EventHandler interface {
	cqrs.EventHandler
	SetCommandBus(*CommandBus)
}

// CmdHandler routes one command type C to a typed handle func.
type CmdHandler[C any] struct {
	eventBus *EventBus
	handle   func(ctx context.Context, bus *EventBus, command *C) error
}

func NewCmdHandler[C any](handle func(ctx context.Context, bus *EventBus, cmd *C) error) *CmdHandler[C] {
	return &CmdHandler[C]{
		handle: handle,
	}
}

func (handler *CmdHandler[C]) HandlerName() string {
	var c C
	return reflect.TypeOf(c).Name() + "CommandHandler"
}

func (handler *CmdHandler[C]) NewCommand() interface{} {
	return new(C)
}

func (handler *CmdHandler[C]) SetEventBus(eventBus *EventBus) {
	handler.eventBus = eventBus
}

func (handler *CmdHandler[C]) Handle(ctx context.Context, c interface{}) error {
	if handler.handle == nil {
		return nil
	}

	command, ok := c.(*C)
	if !ok {
		return fmt.Errorf("%s: command is of type %T", handler.HandlerName(), c)
	}

	return handler.handle(ctx, handler.eventBus, command)
}

// EvtHandler routes one event type E to a typed handle func.
type EvtHandler[E any] struct {
	commandBus *CommandBus
	handle     func(ctx context.Context, event *E) error
}

func NewEventHandler[E any](handle func(ctx context.Context, event *E) error) *EvtHandler[E] {
	return &EvtHandler[E]{
		handle: handle,
	}
}

func (handler *EvtHandler[E]) HandlerName() string {
	var e E
	return reflect.TypeOf(e).Name() + "EventHandler"
}

func (handler *EvtHandler[E]) NewEvent() interface{} {
	return new(E)
}

func (handler *EvtHandler[E]) SetCommandBus(commandBus *CommandBus) {
	handler.commandBus = commandBus
}

func (handler *EvtHandler[E]) Handle(ctx context.Context, e interface{}) error {
	if handler.handle == nil {
		return nil
	}

	event, ok := e.(*E)
	if !ok {
		return fmt.Errorf("%s: event is of type %T", handler.HandlerName(), e)
	}

	return handler.handle(ctx, event)
}
