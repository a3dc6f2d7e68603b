// Package events announces domain events to other processes.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	Channel = "chirper:events"

	TypeEmailVerified = "user.verified"
)

// Event is the JSON payload published on Channel.
type Event struct {
	Type       string    `json:"type"`
	UserID     uint      `json:"user_id"`
	OccurredAt time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// RedisPublisher publishes events with redis PUBLISH.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, Channel, payload).Err()
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
