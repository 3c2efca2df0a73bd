package lifecycle

import (
	"time"

	"github.com/hnhuaxi/weakstatic/singleton"
)

type InstanceCreated struct {
	Static     string
	Generation uint64
	At         time.Time
}

type InstanceDropped struct {
	Static     string
	Generation uint64
	At         time.Time
	// Error is the teardown failure, empty when teardown succeeded.
	Error string
}

// ProbeStatic asks the receiving process for the state of one static.
type ProbeStatic struct {
	Static string
}

// StaticProbed answers ProbeStatic. Found is false when the process never
// acquired a static of that name.
type StaticProbed struct {
	Static string
	Found  bool
	Stats  singleton.Stats
}
