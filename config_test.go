package weakstatic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "gochannel", cfg.MessageQueue.Driver)
	assert.Equal(t, []string{"localhost:9092"}, cfg.MessageQueue.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.MessageQueue.Nats.CloseTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "sqlite", cfg.Audit.Driver)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
message_queue:
  driver: nsq
  nsq:
    addr: nsqd:4150
redis:
  addr: cache:6379
  db: 3
`))
	assert.NoError(t, err)
	assert.Equal(t, "nsq", cfg.MessageQueue.Driver)
	assert.Equal(t, "nsqd:4150", cfg.MessageQueue.Nsq.Addr)
	assert.Equal(t, "weakstatic", cfg.MessageQueue.Nsq.Channel)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "weakstatic", cfg.Redis.Prefix)
}

func TestParseConfigInvalid(t *testing.T) {
	_, err := ParseConfig([]byte("message_queue: ["))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(LogConfig{Level: "debug", Development: true})
	assert.NoError(t, err)
	assert.NotNil(t, log)

	_, err = NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}
