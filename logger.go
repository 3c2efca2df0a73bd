package weakstatic

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/imdario/mergo"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the adapter handed to watermill components when the caller
// does not provide one.
var Logger = watermill.NewStdLogger(false, false)

// NewLogger builds the zap logger described by cfg.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}

type llogger struct {
	log    *zap.SugaredLogger
	fields watermill.LogFields
}

// StdLogger adapts a zap logger to watermill.LoggerAdapter.
func StdLogger(logger *zap.Logger) watermill.LoggerAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &llogger{
		log: logger.Sugar(),
	}
}

func (log *llogger) fieldsArgs(fields watermill.LogFields) []interface{} {
	var (
		args []interface{}
		m    = make(map[string]interface{})
	)

	if len(log.fields) > 0 {
		copier.Copy(&m, log.fields)
	}

	mergo.Map(&m, fields, mergo.WithOverride)

	for key, field := range m {
		args = append(args, key, field)
	}

	return args
}

func (log *llogger) Error(msg string, err error, fields watermill.LogFields) {
	log.log.Errorw(msg, append(log.fieldsArgs(fields), "error", err)...)
}

func (log *llogger) Info(msg string, fields watermill.LogFields) {
	log.log.Infow(msg, log.fieldsArgs(fields)...)
}

func (log *llogger) Debug(msg string, fields watermill.LogFields) {
	log.log.Debugw(msg, log.fieldsArgs(fields)...)
}

func (log *llogger) Trace(msg string, fields watermill.LogFields) {
	log.log.Debugw(msg, log.fieldsArgs(fields)...)
}

func (log *llogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	var merged = make(watermill.LogFields, len(log.fields)+len(fields))
	for k, v := range log.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	return &llogger{
		log:    log.log,
		fields: merged,
	}
}
