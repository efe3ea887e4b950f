package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// KafkaClickPublisher writes ClickRecorded events to the click topic. It
// satisfies shortlink.ClickPublisher.
type KafkaClickPublisher struct {
	writer *kafka.Writer
}

func NewKafkaClickPublisher(brokers []string, topic string) *KafkaClickPublisher {
	return &KafkaClickPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			BatchTimeout:           10 * time.Millisecond,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaClickPublisher) PublishClick(ctx context.Context, code string, at time.Time) error {
	payload := ClickRecorded{
		EventID:    uuid.New().String(),
		Code:       code,
		OccurredAt: at.UTC().Format(time.RFC3339Nano),
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	// Propagate the active trace into the message headers so the consumer
	// can continue the span.
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := make([]kafka.Header, 0, len(carrier))
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(code),
		Value:   value,
		Time:    at.UTC(),
		Headers: headers,
	})
}

func (p *KafkaClickPublisher) Close() error {
	return p.writer.Close()
}
