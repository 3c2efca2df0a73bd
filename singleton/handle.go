package singleton

import (
	weakstatic "github.com/hnhuaxi/weakstatic"
	"go.uber.org/atomic"
)

// cell is one generation of a Static: the instance plus its strong count.
// A count of zero is terminal, nothing can bring the cell back.
type cell[T any] struct {
	value      T
	refs       atomic.Int32
	generation uint64
}

// tryUpgrade takes one more strong reference unless the cell already died.
func (c *cell[T]) tryUpgrade() bool {
	for {
		n := c.refs.Load()
		if n <= 0 {
			return false
		}
		if c.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Handle is a strong reference to the live instance of a Static. The
// instance stays alive at least until every Handle to it is released.
type Handle[T any] struct {
	static   *Static[T]
	cell     *cell[T]
	released atomic.Bool
}

// Value returns the instance. It panics with ErrHandleReleased once the
// handle has been released.
func (h *Handle[T]) Value() T {
	if h.released.Load() {
		panic(weakstatic.ErrHandleReleased)
	}
	return h.cell.value
}

// Generation reports which construction of the Static this handle refers to.
func (h *Handle[T]) Generation() uint64 {
	return h.cell.generation
}

func (h *Handle[T]) Released() bool {
	return h.released.Load()
}

// Clone returns a second strong reference to the same instance.
func (h *Handle[T]) Clone() *Handle[T] {
	if h.released.Load() {
		panic(weakstatic.ErrHandleReleased)
	}

	h.cell.refs.Inc()
	return &Handle[T]{static: h.static, cell: h.cell}
}

// Release gives up this reference. Releasing the last one tears the
// instance down on the calling goroutine and returns the teardown error.
func (h *Handle[T]) Release() error {
	if !h.released.CompareAndSwap(false, true) {
		return weakstatic.ErrHandleReleased
	}

	if h.cell.refs.Dec() > 0 {
		return nil
	}

	return h.static.drop(h.cell)
}
