package singleton

import (
	"reflect"
	"sync"

	weakstatic "github.com/hnhuaxi/weakstatic"
	"github.com/hnhuaxi/weakstatic/registry"
	"github.com/hnhuaxi/weakstatic/utils"
)

// Inspector is the type-erased view of a Static kept in the name registry.
type Inspector interface {
	Name() string
	Stats() Stats
}

type Stats struct {
	Name          string
	Generation    uint64
	Live          bool
	Refs          int32
	Constructions uint64
	Drops         uint64
}

var (
	// declared holds every Static by name from Declare on; statics only
	// those acquired at least once.
	declared registry.Registry[any]
	statics  registry.Registry[Inspector]
	objects  sync.Map
)

// Stats is a lock-free snapshot; Live and Refs may be stale by the time the
// caller looks at them.
func (s *Static[T]) Stats() Stats {
	st := Stats{
		Name:          s.name,
		Generation:    s.generation.Load(),
		Constructions: s.constructions.Load(),
		Drops:         s.drops.Load(),
	}

	if c := s.current.Load(); c != nil {
		st.Refs = c.refs.Load()
		st.Live = st.Refs > 0
	}

	return st
}

// Lookup finds a static by name. Statics register on first Acquire.
func Lookup(name string) (Inspector, bool) {
	return statics.Lookup(name)
}

// Names lists the registered statics in name order.
func Names() []string {
	return statics.Names()
}

// Of returns the weak static for type T, declaring it on first use. It is
// named after T, so Of[*redis.Client] is "redis.client".
func Of[T any](init func() T, opts ...Option) *Static[T] {
	var tt = reflect.TypeOf((*T)(nil)).Elem()

	if created, ok := objects.Load(tt); ok {
		return mustStatic[T](created)
	}

	created, _ := objects.LoadOrStore(tt, DeclareFunc(utils.TypeName(tt), init, opts...))
	return mustStatic[T](created)
}

func mustStatic[T any](v any) *Static[T] {
	s, ok := v.(*Static[T])
	if !ok {
		panic(weakstatic.ErrInvalidInstance)
	}
	return s
}
