// Package weakstatic holds what the packages of this module share: the
// configuration, the error values, logging and the watermill messaging
// vocabulary used to move weak static lifecycle events between processes.
// The weak statics themselves live in package singleton.
package weakstatic

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Messaging types, re-exported so callers need not import watermill.
type (
	Publisher            = message.Publisher
	Subscriber           = message.Subscriber
	Router               = message.Router
	RouterConfig         = message.RouterConfig
	HandlerFunc          = message.HandlerFunc
	NoPublishHandlerFunc = message.NoPublishHandlerFunc
	LoggerAdapter        = watermill.LoggerAdapter

	CommandBus            = cqrs.CommandBus
	EventBus              = cqrs.EventBus
	CommandEventMarshaler = cqrs.CommandEventMarshaler
)

// JSONMarshaler encodes lifecycle events and probe commands.
var JSONMarshaler CommandEventMarshaler = cqrs.JSONMarshaler{}
