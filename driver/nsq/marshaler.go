package nsq

import (
	"github.com/ThreeDotsLabs/watermill-nats/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/stan.go"
	"github.com/nats-io/stan.go/pb"
	"github.com/nsqio/go-nsq"
)

type Marshaler interface {
	Marshal(topic string, msg *message.Message) ([]byte, error)
}

type Unmarshaler interface {
	Unmarshal(msg *nsq.Message) (*message.Message, error)
}

// GobMarshaler puts watermill messages in nsq bodies with the same gob
// encoding the nats streaming driver uses.
type GobMarshaler struct {
	nats.GobMarshaler
}

func (m GobMarshaler) Unmarshal(nsqMsg *nsq.Message) (*message.Message, error) {
	return m.GobMarshaler.Unmarshal(&stan.Msg{
		MsgProto: pb.MsgProto{Data: nsqMsg.Body},
	})
}
