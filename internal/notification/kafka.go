package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"veris/internal/platform/kafka/producer"
)

// KafkaPublisher emits events to the notification topic, keyed by
// application id so per-application ordering is preserved.
type KafkaPublisher struct {
	producer *producer.Producer
}

func NewKafkaPublisher(p *producer.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: p}
}

func (k *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}
	if err := k.producer.Publish(ctx, event.ApplicationID.String(), payload); err != nil {
		return fmt.Errorf("publish notification event: %w", err)
	}
	return nil
}
