package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"checkout-service/internal/models"
)

// Publisher emits order lifecycle events. Callers treat publish
// failures as best-effort: a lost event never undoes a placed order.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *Publisher) OrderPlaced(ctx context.Context, o *models.Order) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("order-placed-%d", o.ID)),
		Value: payload,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
