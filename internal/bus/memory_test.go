package bus

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryBusDelivery(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()

	var got []string
	err := b.Subscribe(ctx, "fog/transactions/raw", func(topic string, payload []byte) {
		got = append(got, topic+":"+string(payload))
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := b.Publish(ctx, "fog/transactions/raw", []byte("a")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	// Different topic, no delivery.
	if err := b.Publish(ctx, "fog/transactions/results", []byte("b")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(got) != 1 || got[0] != "fog/transactions/raw:a" {
		t.Errorf("deliveries = %v, want exactly the raw topic message", got)
	}
}

func TestMemoryBusMultipleSubscribers(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()

	count := 0
	for i := 0; i < 3; i++ {
		if err := b.Subscribe(ctx, "t", func(string, []byte) { count++ }); err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
	}

	if err := b.Publish(ctx, "t", []byte("x")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if count != 3 {
		t.Errorf("deliveries = %d, want 3", count)
	}
}

func TestMemoryBusClose(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()

	delivered := false
	if err := b.Subscribe(ctx, "t", func(string, []byte) { delivered = true }); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	b.Close()
	if err := b.Publish(ctx, "t", []byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish() after close error = %v, want ErrClosed", err)
	}
	if delivered {
		t.Error("handler invoked after Close")
	}
	if err := b.Subscribe(ctx, "t", func(string, []byte) {}); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe() after close error = %v, want ErrClosed", err)
	}
}
