package globalkey

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"golang.org/x/exp/constraints"
)

// Counter is an integer stored under one redis key.
type Counter[T constraints.Integer] struct {
	key      string
	rediscli *redis.Client
	Option   KeyOption
}

func NewCounter[T constraints.Integer](key string, rediscli *redis.Client, ops ...KeyOptionFunc) *Counter[T] {
	return &Counter[T]{
		key:      key,
		rediscli: rediscli,
		Option:   newOption(ops),
	}
}

func (key *Counter[T]) Key() string {
	return key.key
}

func (key *Counter[T]) Inc(ctx context.Context) (T, error) {
	return key.apply(ctx, func(pipe redis.Pipeliner) *redis.IntCmd {
		return pipe.Incr(ctx, key.key)
	})
}

func (key *Counter[T]) IncBy(ctx context.Context, c T) (T, error) {
	return key.apply(ctx, func(pipe redis.Pipeliner) *redis.IntCmd {
		return pipe.IncrBy(ctx, key.key, int64(c))
	})
}

func (key *Counter[T]) Dec(ctx context.Context) (T, error) {
	return key.apply(ctx, func(pipe redis.Pipeliner) *redis.IntCmd {
		return pipe.Decr(ctx, key.key)
	})
}

func (key *Counter[T]) DecBy(ctx context.Context, c T) (T, error) {
	return key.apply(ctx, func(pipe redis.Pipeliner) *redis.IntCmd {
		return pipe.DecrBy(ctx, key.key, int64(c))
	})
}

// apply runs one INCR-family command and refreshes the expiry in the same
// pipeline.
func (key *Counter[T]) apply(ctx context.Context, cmd func(pipe redis.Pipeliner) *redis.IntCmd) (T, error) {
	var (
		opts = key.Option
		z    T
		incr *redis.IntCmd
	)

	_, err := key.rediscli.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = cmd(pipe)
		if opts.Expires > 0 {
			pipe.Expire(ctx, key.key, opts.Expires)
		}
		return nil
	})
	if err != nil {
		return z, err
	}

	val := T(incr.Val())
	if opts.Publish {
		if err := key.publish(ctx, val); err != nil {
			opts.debug("publish %s failed: %s", key.key, err)
		}
	}

	return val, nil
}

func (key *Counter[T]) Load(ctx context.Context) (T, bool) {
	var z T

	v, err := key.rediscli.Get(ctx, key.key).Int64()
	if err != nil {
		return z, false
	}

	return T(v), true
}

func (key *Counter[T]) Store(ctx context.Context, value T) error {
	var opts = key.Option

	if err := key.rediscli.Set(ctx, key.key, int64(value), opts.Expires).Err(); err != nil {
		return err
	}

	if opts.Publish {
		return key.publish(ctx, value)
	}
	return nil
}

func (key *Counter[T]) Remove(ctx context.Context) error {
	return key.rediscli.Del(ctx, key.key).Err()
}

func (key *Counter[T]) publish(ctx context.Context, val T) error {
	var topic = key.Option.topic(key.key)

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	key.Option.debug("publish %v to key %s", val, topic)
	return key.rediscli.Publish(ctx, topic, b).Err()
}
