package presence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisPublisherPublishesEvents(t *testing.T) {
	rdb := setupTestRedis(t)
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, Channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	pub := NewRedisPublisher(rdb, "instance-1")
	err := pub.Publish(ctx, Event{
		Type:         "room-joined",
		RoomID:       "ABC123",
		ConnectionID: "conn-a",
		UserID:       "user-a",
		Username:     "alice",
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var got Event
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("Failed to unmarshal presence event: %v", err)
		}
		if got.Type != "room-joined" || got.RoomID != "ABC123" {
			t.Errorf("unexpected event: %+v", got)
		}
		if got.InstanceID != "instance-1" {
			t.Errorf("expected instance id to be stamped, got %q", got.InstanceID)
		}
		if got.Timestamp.IsZero() {
			t.Error("expected timestamp to be stamped")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected presence event to be delivered")
	}
}

func TestNopPublisher(t *testing.T) {
	if err := (NopPublisher{}).Publish(context.Background(), Event{Type: "disconnected"}); err != nil {
		t.Fatalf("NopPublisher should never fail: %v", err)
	}
}
