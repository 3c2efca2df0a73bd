// Package resource declares weak statics for the connections this module
// knows how to open: redis clients, gorm databases and watermill
// publishers and subscribers. Each is opened by the first Acquire and
// closed when the last handle is released.
package resource

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	weakstatic "github.com/hnhuaxi/weakstatic"
	"github.com/hnhuaxi/weakstatic/singleton"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var PingTimeout = 5 * time.Second

// Redis declares a client for cfg. The initializer pings the server, so an
// unreachable redis fails Acquire instead of the first command.
func Redis(name string, cfg weakstatic.RedisConfig, opts ...singleton.Option) *singleton.Static[*redis.Client] {
	return singleton.Declare(name, func() (*redis.Client, error) {
		cli := redis.NewClient(&redis.Options{
			Addr: cfg.Addr,
			DB:   cfg.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), PingTimeout)
		defer cancel()

		if err := cli.Ping(ctx).Err(); err != nil {
			return nil, multierr.Append(errors.Wrapf(err, "ping redis %s", cfg.Addr), cli.Close())
		}
		return cli, nil
	}, opts...)
}

// RedisFrom declares a client built by ctor, which must not fail.
func RedisFrom(name string, ctor func() *redis.Client, opts ...singleton.Option) *singleton.Static[*redis.Client] {
	return singleton.DeclareFunc(name, ctor, opts...)
}

// Gorm declares a database handle; dropping it closes the connection pool.
func Gorm(name string, dialector gorm.Dialector, config *gorm.Config, opts ...singleton.Option) *singleton.Static[*gorm.DB] {
	if config == nil {
		config = &gorm.Config{}
	}

	opts = append([]singleton.Option{singleton.WithTeardown(CloseDB)}, opts...)
	return singleton.Declare(name, func() (*gorm.DB, error) {
		return gorm.Open(dialector, config)
	}, opts...)
}

func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Dialector picks the gorm driver named in cfg.
func Dialector(cfg weakstatic.AuditConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite", "sqlite3":
		return sqlite.Open(cfg.DSN), nil
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, errors.Wrapf(weakstatic.ErrInvalidDriverType, "audit driver %q", cfg.Driver)
	}
}

// Publisher declares a watermill publisher opened by maker.
func Publisher(name string, maker weakstatic.PublisherMaker, opts ...singleton.Option) *singleton.Static[weakstatic.Publisher] {
	return singleton.Declare(name, singleton.Initializer[weakstatic.Publisher](maker), opts...)
}

// Subscriber declares a watermill subscriber opened by maker. Closing it on
// drop ends every subscription made through it.
func Subscriber(name string, maker weakstatic.SubscriberMaker, opts ...singleton.Option) *singleton.Static[weakstatic.Subscriber] {
	return singleton.Declare(name, singleton.Initializer[weakstatic.Subscriber](maker), opts...)
}
