package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	model "timed-auction/internal/models"
	"timed-auction/utils"

	"github.com/go-redis/redis/v8"
)

// ChannelPrefix prefixes the per-good Redis channel, e.g. auction:good:<id>
const ChannelPrefix = "auction:good:"

// Channel returns the Redis channel carrying events for goodID
func Channel(goodID string) string {
	return ChannelPrefix + goodID
}

// RedisNotifier publishes events so that every API instance can forward them
// to its own websocket rooms
type RedisNotifier struct {
	rdb *redis.Client
}

// NewRedisNotifier creates a RedisNotifier over rdb
func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

// NotifyBid publishes the event on the good's channel. Errors are logged.
func (n *RedisNotifier) NotifyBid(ctx context.Context, goodID string, event model.BidEvent) {
	if err := n.Publish(ctx, newBidMessage(goodID, event)); err != nil {
		utils.Warn("notifier: redis publish failed", map[string]any{"good_id": goodID, "error": err.Error()})
	}
}

// Publish sends msg on its good's channel
func (n *RedisNotifier) Publish(ctx context.Context, msg RoomMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("notifier: marshal message for good %s: %w", msg.GoodID, err)
	}
	if err := n.rdb.Publish(ctx, Channel(msg.GoodID), string(b)).Err(); err != nil {
		return fmt.Errorf("notifier: publish to %s: %w", Channel(msg.GoodID), err)
	}
	return nil
}

// StartRedisSubscriber listens on every good channel and forwards messages to
// the local hub until ctx is done
func StartRedisSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) {
	sub := rdb.PSubscribe(ctx, ChannelPrefix+"*")
	ch := sub.Channel()
	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := forward(hub, msg.Channel, msg.Payload); err != nil {
					utils.Warn("notifier: dropping redis message", map[string]any{"channel": msg.Channel, "error": err.Error()})
				}
			}
		}
	}()
}

func forward(hub *Hub, channel, payload string) error {
	var msg RoomMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return fmt.Errorf("notifier: decode message: %w", err)
	}
	goodID := strings.TrimPrefix(channel, ChannelPrefix)
	if msg.GoodID != goodID {
		return fmt.Errorf("notifier: message for good %q arrived on channel %q", msg.GoodID, channel)
	}
	hub.Broadcast(msg)
	return nil
}
