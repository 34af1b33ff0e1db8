package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"intervuex/internal/models"
	"intervuex/internal/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const EventsChannel = "intervuex:session_events"

type envelope struct {
	Origin string              `json:"origin"`
	Event  models.SessionEvent `json:"event"`
}

// Broker publishes session events to every instance. Local rooms are served directly; remote
// instances receive the event over Redis and skip the ones they published themselves. Without
// a Redis client delivery is in-process only.
type Broker struct {
	hub        *Hub
	rdb        *redis.Client
	instanceID string
	logger     *zap.Logger
}

func NewBroker(hub *Hub, rdb *redis.Client, logger *zap.Logger) *Broker {
	return &Broker{
		hub:        hub,
		rdb:        rdb,
		instanceID: uuid.New().String()[:8],
		logger:     utils.OrNop(logger),
	}
}

func (b *Broker) Publish(ctx context.Context, event models.SessionEvent) error {
	b.hub.Deliver(event)
	if b.rdb == nil {
		return nil
	}

	data, err := json.Marshal(envelope{Origin: b.instanceID, Event: event})
	if err != nil {
		return fmt.Errorf("marshal session event: %w", err)
	}
	if err := b.rdb.Publish(ctx, EventsChannel, data).Err(); err != nil {
		return fmt.Errorf("publish session event: %w", err)
	}
	return nil
}

// Subscribe confirms the Redis subscription and then relays remote events to local rooms
// until ctx is cancelled.
func (b *Broker) Subscribe(ctx context.Context) error {
	if b.rdb == nil {
		return nil
	}

	sub := b.rdb.Subscribe(ctx, EventsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe to %s: %w", EventsChannel, err)
	}
	b.logger.Info("subscribed to session events",
		zap.String("channel", EventsChannel),
		zap.String("instance", b.instanceID))

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
	return nil
}

func (b *Broker) handle(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Warn("dropping malformed session event", zap.Error(err))
		return
	}
	if env.Origin == b.instanceID {
		return
	}
	b.hub.Deliver(env.Event)
}
