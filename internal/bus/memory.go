package bus

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus used by tests and single-process demos.
// Delivery is synchronous: Publish invokes every matching handler before
// returning, which keeps end-to-end tests deterministic.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string][]Handler
	closed bool
}

// Compile-time interface check.
var _ Bus = (*MemoryBus)(nil)

// NewMemoryBus creates an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]Handler)}
}

// Publish delivers payload to every handler subscribed to topic. Returns
// ErrClosed after Close.
func (b *MemoryBus) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	handlers := append([]Handler(nil), b.subs[topic]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(topic, payload)
	}
	return nil
}

// Subscribe registers a handler for exact-match topic delivery. Returns
// ErrClosed after Close.
func (b *MemoryBus) Subscribe(_ context.Context, topic string, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.subs[topic] = append(b.subs[topic], h)
	return nil
}

// Close drops all subscriptions.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string][]Handler)
	b.closed = true
}
