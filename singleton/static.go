// Package singleton implements weak statics: process-wide values built on
// first use, shared by reference count and torn down as soon as the last
// holder lets go, to be built again on the next use.
//
//	var Pool = singleton.Accessor(singleton.Declare("pool", openPool))
//
//	h, err := Pool()
//	if err != nil {
//		return err
//	}
//	defer h.Release()
package singleton

import (
	"fmt"
	"io"
	"sync"

	weakstatic "github.com/hnhuaxi/weakstatic"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Initializer[T any] func() (T, error)

// Static is the slot of one declared weak static. It points at the current
// generation without owning it; handles own it.
type Static[T any] struct {
	name      string
	init      Initializer[T]
	teardown  func(T) error
	log       *zap.SugaredLogger
	observers []Observer

	once sync.Once
	mu   sync.Mutex

	current       atomic.Pointer[cell[T]]
	generation    atomic.Uint64
	constructions atomic.Uint64
	drops         atomic.Uint64
}

// Declare binds a name, a type and an initializer. Nothing is built until
// the first Acquire.
//
// A name has exactly one slot. Declaring a name again with the same T
// returns the first Static, and the new initializer and options are
// dropped; declaring it with another T panics with ErrInvalidInstance.
func Declare[T any](name string, init Initializer[T], opts ...Option) *Static[T] {
	if name == "" {
		panic("singleton: empty static name")
	}
	if init == nil {
		panic(fmt.Sprintf("singleton: static %s has no initializer", name))
	}

	var opt options
	for _, op := range opts {
		op(&opt)
	}

	if opt.logger == nil {
		opt.logger = zap.NewNop()
	}

	s := &Static[T]{
		name:      name,
		init:      init,
		log:       opt.logger.Sugar().With("static", name),
		observers: opt.observers,
	}

	if opt.teardown != nil {
		fn, ok := opt.teardown.(func(T) error)
		if !ok {
			panic(fmt.Sprintf("singleton: static %s teardown is %T, want func(%T) error", name, opt.teardown, *new(T)))
		}
		s.teardown = fn
	}

	actual, ok := declared.Register(name, s)
	if ok {
		return s
	}

	prev, same := actual.(*Static[T])
	if !same {
		panic(errors.Wrapf(weakstatic.ErrInvalidInstance, "static %s is %T, redeclared as %T", name, actual, s))
	}
	prev.debugf("redeclared, keeping the first declaration")
	return prev
}

// DeclareFunc is Declare for initializers that cannot fail.
func DeclareFunc[T any](name string, init func() T, opts ...Option) *Static[T] {
	if init == nil {
		panic(fmt.Sprintf("singleton: static %s has no initializer", name))
	}

	return Declare(name, func() (T, error) {
		return init(), nil
	}, opts...)
}

// Accessor returns the zero-argument accessor of s, the function the
// declaring package exposes under the static's name.
func Accessor[T any](s *Static[T]) func() (*Handle[T], error) {
	return s.Acquire
}

func (s *Static[T]) Name() string {
	return s.name
}

func (s *Static[T]) setup() {
	statics.Register(s.name, s)
	s.debugf("slot ready")
}

func (s *Static[T]) debugf(f string, args ...interface{}) {
	s.log.Debugf(f, args...)
}

// Acquire returns a handle to the live instance, constructing one if no
// instance is alive. Only one caller constructs per generation; others wait
// on the slot lock and then share the result.
//
// An initializer error is returned wrapped and leaves the slot empty, so the
// next Acquire tries again. A panicking initializer unwinds through here
// with the same effect.
func (s *Static[T]) Acquire() (*Handle[T], error) {
	s.once.Do(s.setup)

	s.mu.Lock()
	defer s.mu.Unlock()

	if c := s.current.Load(); c != nil && c.tryUpgrade() {
		return &Handle[T]{static: s, cell: c}, nil
	}

	value, err := s.init()
	if err != nil {
		s.debugf("initialize failed: %s", err)
		return nil, errors.Wrapf(err, "weak static %s: initialize", s.name)
	}

	c := &cell[T]{
		value:      value,
		generation: s.generation.Inc(),
	}
	c.refs.Store(1)
	s.current.Store(c)
	s.constructions.Inc()

	s.debugf("created generation %d", c.generation)
	for _, obs := range s.observers {
		s.notify(func() { obs.Created(s.name, c.generation) })
	}

	return &Handle[T]{static: s, cell: c}, nil
}

// MustAcquire is Acquire for statics whose initializer cannot fail.
func (s *Static[T]) MustAcquire() *Handle[T] {
	h, err := s.Acquire()
	if err != nil {
		panic(err)
	}
	return h
}

// With acquires the instance for the duration of fn.
func (s *Static[T]) With(fn func(T) error) (err error) {
	h, err := s.Acquire()
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, h.Release())
	}()

	return fn(h.Value())
}

// notify runs one observer callback. A panicking observer is logged and
// skipped: the handle being built or torn down must stay accounted for.
func (s *Static[T]) notify(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("observer panic: %v", r)
		}
	}()

	fn()
}

// drop runs when c's count reaches zero, on the goroutine that released the
// last handle and without the slot lock.
func (s *Static[T]) drop(c *cell[T]) error {
	var err error

	if s.teardown != nil {
		err = s.teardown(c.value)
	} else if closer, ok := any(c.value).(io.Closer); ok {
		err = closer.Close()
	}

	var zero T
	c.value = zero
	s.drops.Inc()

	if err != nil {
		err = errors.Wrapf(err, "weak static %s: teardown", s.name)
		s.debugf("dropped generation %d: %s", c.generation, err)
	} else {
		s.debugf("dropped generation %d", c.generation)
	}

	for _, obs := range s.observers {
		s.notify(func() { obs.Dropped(s.name, c.generation, err) })
	}

	return err
}
