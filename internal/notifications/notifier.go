// Package notifications provides real-time notification delivery and management.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"livaulislam/internal/middleware"
	"livaulislam/internal/models"
	"livaulislam/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Channel prefixes. Both carry a user id suffix.
const (
	AuthChannelPrefix         = "auth:user:"
	NotificationChannelPrefix = "notifications:user:"
)

// Message types carried on the websocket stream.
const (
	MessageAuthEvent    = "auth_event"
	MessageNotification = "notification"
	// MessageResync tells a device it missed events and must re-read its session.
	MessageResync = "resync"
)

// Message is the envelope written to Redis and forwarded verbatim to websocket clients.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Notifier provides helpers to publish events into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

func (n *Notifier) publish(ctx context.Context, channel, msgType string, v interface{}) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	envelope, err := json.Marshal(Message{Type: msgType, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return n.rdb.Publish(ctx, channel, envelope).Err()
}

// PublishAuthEvent sends an auth-state transition to the user's auth channel.
func (n *Notifier) PublishAuthEvent(ctx context.Context, event models.AuthEvent) error {
	observability.AuthEvents.WithLabelValues(event.Type).Inc()
	return n.publish(ctx, AuthChannel(event.UserID), MessageAuthEvent, event)
}

// PublishNotification sends an in-app notification to its owner.
func (n *Notifier) PublishNotification(ctx context.Context, note *models.Notification) error {
	return n.publish(ctx, UserChannel(note.UserID), MessageNotification, note)
}

// StartPatternSubscriber subscribes to every user channel and calls onMessage
// for each incoming message. onMessage receives channel and payload.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, AuthChannelPrefix+"*", NotificationChannelPrefix+"*")
	// Wait for the subscription to be confirmed so publishes right after start are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe user channels: %w", err)
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
							middleware.Logger.Error("panic in pattern subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// AuthChannel derives the auth-event channel name for a user.
func AuthChannel(userID uuid.UUID) string {
	return AuthChannelPrefix + userID.String()
}

// UserChannel derives the notification channel name for a user.
func UserChannel(userID uuid.UUID) string {
	return NotificationChannelPrefix + userID.String()
}

// ParseUserChannel extracts the user id from an auth or notification channel.
func ParseUserChannel(channel string) (uuid.UUID, bool) {
	for _, prefix := range []string{AuthChannelPrefix, NotificationChannelPrefix} {
		if rest, ok := strings.CutPrefix(channel, prefix); ok {
			id, err := uuid.Parse(rest)
			return id, err == nil
		}
	}
	return uuid.Nil, false
}
