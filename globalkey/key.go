package globalkey

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
)

// Key is a JSON encoded value stored under one redis key.
type Key[T any] struct {
	key      string
	rediscli *redis.Client
	Option   KeyOption
}

func NewKey[T any](key string, rediscli *redis.Client, ops ...KeyOptionFunc) *Key[T] {
	return &Key[T]{
		key:      key,
		rediscli: rediscli,
		Option:   newOption(ops),
	}
}

func (key *Key[T]) Key() string {
	return key.key
}

func (key *Key[T]) Load(ctx context.Context) (T, bool) {
	var (
		opts = key.Option
		z    T
		cmd  *redis.StringCmd
	)

	if opts.Expires > 0 {
		cmd = key.rediscli.GetEx(ctx, key.key, opts.Expires)
	} else {
		cmd = key.rediscli.Get(ctx, key.key)
	}

	b, err := cmd.Bytes()
	if err != nil {
		return z, false
	}

	var val T
	if err := json.Unmarshal(b, &val); err != nil {
		opts.debug("decode %s failed: %s", key.key, err)
		return z, false
	}
	return val, true
}

func (key *Key[T]) Store(ctx context.Context, value T) error {
	var opts = key.Option

	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if err := key.rediscli.Set(ctx, key.key, b, opts.Expires).Err(); err != nil {
		return err
	}

	if opts.Publish {
		topic := opts.topic(key.key)
		opts.debug("publish %s to key %s", b, topic)
		return key.rediscli.Publish(ctx, topic, b).Err()
	}
	return nil
}

func (key *Key[T]) Remove(ctx context.Context) error {
	return key.rediscli.Del(ctx, key.key).Err()
}

// Subscribe delivers every value published for this key until ctx is done.
func (key *Key[T]) Subscribe(ctx context.Context) <-chan T {
	var (
		ch     = make(chan T)
		pubsub = key.rediscli.Subscribe(ctx, key.Option.topic(key.key))
	)

	go func() {
		defer close(ch)
		defer pubsub.Close()

		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}

			var value T
			if err = json.Unmarshal([]byte(msg.Payload), &value); err != nil {
				key.Option.debug("decode message on %s failed: %s", msg.Channel, err)
				continue
			}

			select {
			case ch <- value:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}
