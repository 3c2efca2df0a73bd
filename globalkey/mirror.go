package globalkey

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hnhuaxi/weakstatic/singleton"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Generation is what the mirror records about the newest instance of a
// static.
type Generation struct {
	Static     string    `json:"static"`
	Generation uint64    `json:"generation"`
	Host       string    `json:"host"`
	At         time.Time `json:"at"`
}

// Mirror is a singleton.Observer that keeps per-static state in redis so
// other processes can see it: "<prefix>:<static>:live" counts live instances
// across processes, "<prefix>:<static>:current" holds the newest Generation.
//
// The redis client is itself a weak static and is acquired per update. A
// Mirror must not observe its own client static: Created runs under that
// static's lock and acquiring it again would deadlock.
type Mirror struct {
	prefix string
	client *singleton.Static[*redis.Client]
	ops    []KeyOptionFunc
	log    *zap.SugaredLogger
	host   string
	now    func() time.Time
}

func NewMirror(client *singleton.Static[*redis.Client], prefix string, ops ...KeyOptionFunc) *Mirror {
	var (
		opts    = newOption(ops)
		host, _ = os.Hostname()
		log     = opts.Log
	)

	if log == nil {
		log = zap.NewNop()
	}

	return &Mirror{
		prefix: prefix,
		client: client,
		ops:    ops,
		log:    log.Sugar(),
		host:   host,
		now:    time.Now,
	}
}

func (m *Mirror) liveKey(name string) string {
	return DefaultPattern(m.prefix, name+":live")
}

func (m *Mirror) currentKey(name string) string {
	return DefaultPattern(m.prefix, name+":current")
}

func (m *Mirror) Created(name string, generation uint64) {
	var ctx = context.Background()

	err := m.client.With(func(cli *redis.Client) error {
		_, incErr := NewCounter[int64](m.liveKey(name), cli, m.ops...).Inc(ctx)

		storeErr := NewKey[Generation](m.currentKey(name), cli, m.ops...).Store(ctx, Generation{
			Static:     name,
			Generation: generation,
			Host:       m.host,
			At:         m.now(),
		})

		return multierr.Append(incErr, storeErr)
	})
	if err != nil {
		m.log.Warnf("mirror created %s/%d: %s", name, generation, err)
	}
}

func (m *Mirror) Dropped(name string, generation uint64, _ error) {
	var ctx = context.Background()

	err := m.client.With(func(cli *redis.Client) error {
		_, err := NewCounter[int64](m.liveKey(name), cli, m.ops...).Dec(ctx)
		return err
	})
	if err != nil {
		m.log.Warnf("mirror dropped %s/%d: %s", name, generation, err)
	}
}

// Live returns how many instances of the static are alive across every
// process feeding this mirror.
func (m *Mirror) Live(ctx context.Context, name string) (n int64, err error) {
	err = m.client.With(func(cli *redis.Client) error {
		var ok bool
		if n, ok = NewCounter[int64](m.liveKey(name), cli).Load(ctx); !ok {
			return fmt.Errorf("no live count for %s", name)
		}
		return nil
	})
	return n, err
}

// Current returns the newest recorded generation of the static.
func (m *Mirror) Current(ctx context.Context, name string) (gen Generation, ok bool) {
	err := m.client.With(func(cli *redis.Client) error {
		gen, ok = NewKey[Generation](m.currentKey(name), cli).Load(ctx)
		return nil
	})
	return gen, ok && err == nil
}

// Watch streams generations published for the static. The mirror must be
// built with OptPublish for anything to arrive. The redis client is held
// until ctx is done.
func (m *Mirror) Watch(ctx context.Context, name string) (<-chan Generation, error) {
	h, err := m.client.Acquire()
	if err != nil {
		return nil, err
	}

	var (
		src = NewKey[Generation](m.currentKey(name), h.Value(), m.ops...).Subscribe(ctx)
		out = make(chan Generation)
	)

	go func() {
		defer close(out)
		defer h.Release()

		for gen := range src {
			select {
			case out <- gen:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
