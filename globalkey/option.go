package globalkey

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

type KeyOption struct {
	Expires      time.Duration
	Publish      bool
	PublishTopic string
	Log          *zap.Logger
}

type KeyOptionFunc func(opt *KeyOption)

func OptExpires(dt time.Duration) KeyOptionFunc {
	return func(opt *KeyOption) {
		opt.Expires = dt
	}
}

func OptPublish(name ...string) KeyOptionFunc {
	return func(opt *KeyOption) {
		opt.Publish = true
		if len(name) > 0 {
			opt.PublishTopic = name[0]
		}
	}
}

func OptLogger(logger *zap.Logger) KeyOptionFunc {
	return func(opt *KeyOption) {
		opt.Log = logger
	}
}

func newOption(ops []KeyOptionFunc) KeyOption {
	var opts KeyOption
	for _, op := range ops {
		op(&opts)
	}
	return opts
}

func (opt KeyOption) debug(f string, args ...interface{}) {
	if opt.Log != nil {
		opt.Log.Sugar().Debugf(f, args...)
	}
}

func (opt KeyOption) topic(key string) string {
	if len(opt.PublishTopic) > 0 {
		return opt.PublishTopic
	}
	return key
}

var DefaultPattern = func(prefix string, k any) string {
	return fmt.Sprintf("%s:%v", prefix, k)
}
