package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/thethakurshivam/grs-sub003/internal/models"
)

// EventRepository publishes workflow events on a Redis pub/sub channel.
type EventRepository struct {
	client  redis.UniversalClient
	channel string
}

// NewEventRepository constructs the publisher.
func NewEventRepository(client redis.UniversalClient, channel string) *EventRepository {
	return &EventRepository{client: client, channel: channel}
}

// Publish sends one event as JSON.
func (r *EventRepository) Publish(ctx context.Context, event models.Event) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", event.Type, err)
	}
	return nil
}
