// Package notifications delivers persisted notifications to connected WebSocket clients.
package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"

	"petconnect/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	userChannelPrefix = "notifications:user:"
	// BroadcastChannel reaches every connected client on every instance.
	BroadcastChannel = "notifications:broadcast"
)

// Notifier publishes notification payloads into Redis channels so every
// instance's hub can forward them to its own sockets.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier. A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether the notifier is backed by Redis.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// UserChannel returns the pub/sub channel for one user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

// parseUserChannel extracts the user id from notifications:user:<id>.
func parseUserChannel(channel string) (uint, error) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return 0, fmt.Errorf("not a user channel: %s", channel)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user id in channel: %s", channel)
	}
	return uint(id), nil
}

// PublishUser sends a payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if !n.Enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishBroadcast sends a payload to all connected users.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if !n.Enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, BroadcastChannel, payload).Err()
}

// StartPatternSubscriber subscribes to every user channel and the broadcast
// channel, calling onMessage for each message until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*", BroadcastChannel)
	// Wait for the subscription confirmation so publishes right after start are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe notifications: %w", err)
	}
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
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
