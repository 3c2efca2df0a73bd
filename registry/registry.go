package registry

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Registry is a concurrent name -> value table. The zero value is ready to use.
type Registry[T any] struct {
	mu  sync.RWMutex
	set map[string]T
}

func (reg *Registry[T]) init() {
	if reg.set == nil {
		reg.set = make(map[string]T)
	}
}

// Register stores val under name unless the name is taken. It reports the
// value that ends up registered and whether it was val.
func (reg *Registry[T]) Register(name string, val T) (actual T, ok bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.init()

	if prev, exists := reg.set[name]; exists {
		return prev, false
	}

	reg.set[name] = val
	return val, true
}

func (reg *Registry[T]) Lookup(name string) (val T, ok bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	val, ok = reg.set[name]
	return val, ok
}

// Range calls fn for each entry in name order until fn returns false.
func (reg *Registry[T]) Range(fn func(name string, val T) bool) {
	for _, name := range reg.Names() {
		val, ok := reg.Lookup(name)
		if !ok {
			continue
		}
		if !fn(name, val) {
			return
		}
	}
}

func (reg *Registry[T]) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	names := maps.Keys(reg.set)
	slices.Sort(names)
	return names
}
