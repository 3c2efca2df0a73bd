package singleton

import (
	"go.uber.org/zap"
)

type options struct {
	logger    *zap.Logger
	observers []Observer
	teardown  any
}

type Option func(opt *options)

// WithTeardown sets what runs when the last handle is released. Without it
// an instance implementing io.Closer is closed, anything else is left to the GC.
func WithTeardown[T any](fn func(T) error) Option {
	return func(opt *options) {
		opt.teardown = fn
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(opt *options) {
		opt.logger = logger
	}
}

func WithObserver(observers ...Observer) Option {
	return func(opt *options) {
		opt.observers = append(opt.observers, observers...)
	}
}
