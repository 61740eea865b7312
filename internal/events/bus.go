package events

import (
	"Go_Share/internal/logger"
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel is the Redis pub/sub channel shared by all API processes.
const Channel = "share:events"

// Bus publishes events through Redis so every process's Hub sees them.
type Bus struct {
	rdb *redis.Client
	hub *Hub
}

func NewBus(rdb *redis.Client, hub *Hub) *Bus {
	return &Bus{rdb: rdb, hub: hub}
}

// Publish sends ev to Redis. Implements Publisher.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, Channel, payload).Err()
}

// Run forwards Redis events into the local hub until ctx is done.
func (b *Bus) Run(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, Channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	logger.L().Info("event bus subscribed", zap.String("channel", Channel))
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.L().Warn("bad event payload", zap.Error(err))
				continue
			}
			b.hub.deliver(ev, []byte(msg.Payload))
		}
	}
}
