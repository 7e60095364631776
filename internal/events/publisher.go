package events

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/SharvChopra/SnapGram/internal/domain"
)

// Producer publishes persisted messages to the message-sent topic for
// downstream consumers (notification fan-out lives outside this service).
type Producer struct {
	writer *kafkago.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		Async:        false,
	}
	return &Producer{writer: w}
}

func (p *Producer) MessageSent(ctx context.Context, m domain.Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	msg := kafkago.Message{
		Key:   []byte(m.Recipient),
		Value: b,
		Time:  m.CreatedAt,
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
