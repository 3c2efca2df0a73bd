package nsq

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill-nats/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
)

func TestGobMarshaler(t *testing.T) {
	var m GobMarshaler

	msg := message.NewMessage("uuid-1", []byte("payload"))
	msg.Metadata.Set("static", "db")

	b, err := m.Marshal("topic", msg)
	assert.NoError(t, err)

	got, err := m.Unmarshal(&nsq.Message{Body: b})
	assert.NoError(t, err)
	assert.True(t, got.Equals(msg))
	assert.Equal(t, "db", got.Metadata.Get("static"))

	_, err = m.Unmarshal(&nsq.Message{Body: []byte("garbage")})
	assert.Error(t, err)
}

func TestGobMarshalerMatchesNats(t *testing.T) {
	msg := message.NewMessage("u1", []byte("ping"))
	msg.Metadata.Set("k", "v")

	// bodies written by the nats streaming marshaler decode as nsq messages
	b, err := nats.GobMarshaler{}.Marshal("topic", msg)
	assert.NoError(t, err)

	got, err := GobMarshaler{}.Unmarshal(&nsq.Message{Body: b})
	assert.NoError(t, err)
	assert.Equal(t, "u1", got.UUID)
	assert.Equal(t, "ping", string(got.Payload))
	assert.Equal(t, "v", got.Metadata.Get("k"))
}
