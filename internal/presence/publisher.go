package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel is the Redis channel presence events are published on.
const Channel = "codecolab:presence"

// Event describes a join/leave transition for external consumers. This is a
// publish-only feed; the hub never reads state back from it.
type Event struct {
	Type         string    `json:"type"` // "room-joined", "room-left", "call-joined", "call-left", "disconnected"
	RoomID       string    `json:"roomId,omitempty"`
	ConnectionID string    `json:"connectionId"`
	UserID       string    `json:"userId,omitempty"`
	Username     string    `json:"username,omitempty"`
	InstanceID   string    `json:"instanceId"`
	Timestamp    time.Time `json:"timestamp"`
}

// Publisher emits presence events. Publish must never block event handling
// for long; failures are returned for logging and otherwise ignored.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// RedisPublisher publishes presence events to a Redis channel.
type RedisPublisher struct {
	rdb        *redis.Client
	instanceID string
}

func NewRedisPublisher(rdb *redis.Client, instanceID string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, instanceID: instanceID}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	ev.InstanceID = p.instanceID
	ev.Timestamp = time.Now()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal presence event: %w", err)
	}
	return p.rdb.Publish(ctx, Channel, data).Err()
}

// NopPublisher discards events. Used when no Redis address is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
