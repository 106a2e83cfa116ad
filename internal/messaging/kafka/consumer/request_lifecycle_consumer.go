package consumer

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"go-reqflow/internal/events"
	"go-reqflow/internal/notification"
)

// ConsumeRequestLifecycle invalidates the cached unread counters of everyone
// a lifecycle event notified. The counter cache is rebuilt lazily from the
// database, so replaying a message after an at-least-once redelivery is
// harmless.
func ConsumeRequestLifecycle(
	ctx context.Context,
	reader *kafkago.Reader,
	notificationService notification.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.request_lifecycle")
	log.Info("request lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("request lifecycle consumer stopped")
				return
			}
			log.Error("fetch request lifecycle message failed", zap.Error(err))
			continue
		}

		ev, err := events.Unmarshal(msg.Value)
		if err != nil {
			log.Error("decode request lifecycle event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		invalidated := 0
		failed := false
		for _, n := range notification.Derive(ev) {
			recipientID := n.RecipientID.String()
			if err := notificationService.InvalidateUnreadCount(ctx, recipientID); err != nil {
				log.Error("invalidate unread count failed",
					zap.String("event_type", ev.EventType()),
					zap.String("recipient_id", recipientID),
					zap.Error(err),
				)
				failed = true
				break
			}
			invalidated++
		}
		if failed {
			// Leave the message uncommitted so it is redelivered.
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit request lifecycle message failed", zap.Error(err))
			continue
		}

		if invalidated > 0 {
			log.Info("unread counters invalidated",
				zap.String("event_type", ev.EventType()),
				zap.String("request_id", ev.AggregateID()),
				zap.Int("recipients", invalidated),
			)
		}
	}
}
