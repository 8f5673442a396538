package chathub

import (
	"context"
	"encoding/json"
	"fmt"

	"storybook/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deliverer is the local side of the bus. *ManagerService implements it.
type Deliverer interface {
	Deliver(userID string, ev models.Event) int
}

type envelope struct {
	UserID string       `json:"user_id"`
	Event  models.Event `json:"event"`
}

// Bus relays events between instances over one redis pub/sub channel.
// Every instance delivers each received event to its own channels.
type Bus struct {
	rdb     *redis.Client
	channel string
	local   Deliverer
	logger  *zap.Logger
}

func NewBus(rdb *redis.Client, channel string, local Deliverer, logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{rdb: rdb, channel: channel, local: local, logger: logger}
}

func (b *Bus) Publish(ctx context.Context, userID string, ev models.Event) error {
	payload, err := json.Marshal(envelope{UserID: userID, Event: ev})
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel, err)
	}
	busMessages.WithLabelValues("out").Inc()
	return nil
}

// Start subscribes and returns once the subscription is confirmed. Events
// are relayed until ctx is cancelled.
func (b *Bus) Start(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe to %s: %w", b.channel, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.handle(msg.Payload)
			}
		}
	}()

	b.logger.Info("event bus listening", zap.String("channel", b.channel))
	return nil
}

func (b *Bus) handle(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Warn("discarding malformed bus message", zap.Error(err))
		return
	}
	busMessages.WithLabelValues("in").Inc()
	b.local.Deliver(env.UserID, env.Event)
}
