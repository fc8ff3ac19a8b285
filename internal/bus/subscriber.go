package bus

import (
	"context"

	"github.com/shopsearch/shop-search/internal/pkg/logger"
)

// SubscribeLogging attaches a structured-log consumer to the telemetry
// topics. This is the default in-process consumer; external consumers can
// replace it by pointing the bus at Kafka.
func SubscribeLogging(ctx context.Context, b Bus, log *logger.Logger) error {
	topics := []string{TopicSearchCompleted, TopicSearchFailed, TopicFeedbackReceived}

	for _, topic := range topics {
		topic := topic
		err := b.Subscribe(ctx, topic, func(ctx context.Context, event Event) error {
			log.Info("Telemetry event",
				"topic", topic,
				"event_id", event.ID,
				"session", event.SessionID,
				"payload", event.Payload)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
