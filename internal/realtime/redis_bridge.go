package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Channel is the Redis pub/sub channel shared by every API instance
const Channel = "fame:events"

// RedisBridge publishes events to Redis so that every instance, including
// this one, fans them out to its local hub.
type RedisBridge struct {
	client *redis.Client
	hub    *Hub
	log    zerolog.Logger
}

// NewRedisBridge creates a bridge between Redis and the local hub
func NewRedisBridge(client *redis.Client, hub *Hub, log zerolog.Logger) *RedisBridge {
	return &RedisBridge{
		client: client,
		hub:    hub,
		log:    log.With().Str("component", "redis_bridge").Logger(),
	}
}

// Publish sends ev to the shared channel
func (b *RedisBridge) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.client.Publish(ctx, Channel, string(payload)).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Run subscribes to the shared channel and delivers messages to the hub
// until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", Channel, err)
	}
	b.log.Info().Str("channel", Channel).Msg("Subscribed to realtime channel")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handleMessage(msg.Payload)
		}
	}
}

func (b *RedisBridge) handleMessage(payload string) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		b.log.Warn().Err(err).Msg("Discarding malformed realtime message")
		return
	}
	if ev.EventID == "" || ev.Type == "" {
		b.log.Warn().Msg("Discarding realtime message without type or event id")
		return
	}
	b.hub.Deliver(ev)
}
