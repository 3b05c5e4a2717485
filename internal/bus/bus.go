// Package bus abstracts the publish/subscribe transport carrying raw
// transaction records and classifier verdicts between edge nodes and the
// central listener.
package bus

import (
	"context"
	"errors"
)

// ErrClosed is returned when publishing or subscribing on a closed bus.
var ErrClosed = errors.New("bus is closed")

// Handler processes one delivered message. Handlers must not block for long:
// delivery is serialized per subscription.
type Handler func(topic string, payload []byte)

// Bus is a minimal publish/subscribe transport.
type Bus interface {
	// Publish sends payload to topic. Errors are transport errors; payloads
	// are opaque bytes.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers a handler for topic. The subscription stays active
	// until Close.
	Subscribe(ctx context.Context, topic string, h Handler) error

	// Close tears down the connection and all subscriptions.
	Close()
}
