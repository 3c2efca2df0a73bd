package singleton

import (
	"go.uber.org/zap"
)

// Observer is told about every construction and teardown of a static.
// Created runs under the slot lock, so it must not call back into the same
// static's Acquire. Dropped runs on the goroutine releasing the last handle.
type Observer interface {
	Created(name string, generation uint64)
	Dropped(name string, generation uint64, err error)
}

// ObserverFuncs adapts plain functions; nil fields are skipped.
type ObserverFuncs struct {
	OnCreated func(name string, generation uint64)
	OnDropped func(name string, generation uint64, err error)
}

func (o ObserverFuncs) Created(name string, generation uint64) {
	if o.OnCreated != nil {
		o.OnCreated(name, generation)
	}
}

func (o ObserverFuncs) Dropped(name string, generation uint64, err error) {
	if o.OnDropped != nil {
		o.OnDropped(name, generation, err)
	}
}

type logObserver struct {
	log *zap.Logger
}

// LogObserver logs lifecycle transitions at info level, teardown failures at
// error level.
func LogObserver(log *zap.Logger) Observer {
	return &logObserver{log: log}
}

func (o *logObserver) Created(name string, generation uint64) {
	o.log.Info("weak static created", zap.String("static", name), zap.Uint64("generation", generation))
}

func (o *logObserver) Dropped(name string, generation uint64, err error) {
	if err != nil {
		o.log.Error("weak static teardown failed", zap.String("static", name), zap.Uint64("generation", generation), zap.Error(err))
		return
	}
	o.log.Info("weak static dropped", zap.String("static", name), zap.Uint64("generation", generation))
}
