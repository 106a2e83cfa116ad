package producer

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"

	"go-reqflow/internal/messaging/kafka"
)

func publishEvent(ctx context.Context, writer *kafkago.Writer, event kafka.OutboxEvent) error {
	msg := kafkago.Message{
		Topic: event.Topic,
		// Key by aggregate so transitions of one request stay ordered.
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "correlation_id", Value: []byte(event.CorrelationID)},
		},
	}

	return writer.WriteMessages(ctx, msg)
}
