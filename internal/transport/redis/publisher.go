package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultMaxLen = 100_000

// Publisher appends analytics events to a Redis stream.
type Publisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

type envelope struct {
	EventType string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

func NewPublisher(client *redis.Client, stream string) *Publisher {
	return &Publisher{
		client: client,
		stream: stream,
		maxLen: defaultMaxLen,
	}
}

// Publish - XADD of the event; the stream is trimmed to roughly maxLen entries.
func (that *Publisher) Publish(ctx context.Context, eventType string, payload any) error {
	data, err := json.Marshal(envelope{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	err = that.client.XAdd(ctx, &redis.XAddArgs{
		Stream: that.stream,
		MaxLen: that.maxLen,
		Approx: true,
		Values: map[string]any{
			"event_type": eventType,
			"payload":    string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add %s event to stream %s: %w", eventType, that.stream, err)
	}

	return nil
}
