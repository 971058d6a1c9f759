package messaging

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("broker is closed")

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// ChannelNotifications carries in-app notification events.
const ChannelNotifications = "notifications"
