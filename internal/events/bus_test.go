package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/greenworld/eco-rewards-service/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBusDeliversToAllHandlers(t *testing.T) {
	bus := NewBus(testLogger(), 2, 16)

	var mu sync.Mutex
	got := make(map[string]int)
	record := func(name string) Handler {
		return func(ctx context.Context, ev models.TransactionEvent) error {
			mu.Lock()
			defer mu.Unlock()
			got[name+"|"+ev.TransactionID]++
			return nil
		}
	}
	bus.Subscribe(record("a"))
	bus.Subscribe(record("b"))
	bus.Start(context.Background())

	for i := 0; i < 5; i++ {
		bus.Publish(models.TransactionEvent{TransactionID: fmt.Sprintf("tx-%d", i), MemberID: 1})
	}
	bus.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 10 {
		t.Fatalf("expected 10 handler deliveries, got %d: %v", len(got), got)
	}
	for key, count := range got {
		if count != 1 {
			t.Errorf("delivery %s happened %d times, want 1", key, count)
		}
	}
}

func TestBusIsolatesHandlerFailures(t *testing.T) {
	bus := NewBus(testLogger(), 1, 4)

	bus.Subscribe(func(ctx context.Context, ev models.TransactionEvent) error {
		return errors.New("boom")
	})
	bus.Subscribe(func(ctx context.Context, ev models.TransactionEvent) error {
		panic("handler panic")
	})

	var mu sync.Mutex
	var delivered []string
	bus.Subscribe(func(ctx context.Context, ev models.TransactionEvent) error {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, ev.TransactionID)
		return nil
	})

	bus.Start(context.Background())
	bus.Publish(models.TransactionEvent{TransactionID: "tx-1", MemberID: 1})
	bus.Publish(models.TransactionEvent{TransactionID: "tx-2", MemberID: 1})
	bus.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 2 {
		t.Fatalf("healthy handler saw %d events, want 2", len(delivered))
	}
}

func TestBusCloseDrainsQueue(t *testing.T) {
	bus := NewBus(testLogger(), 1, 64)

	var mu sync.Mutex
	var count int
	bus.Subscribe(func(ctx context.Context, ev models.TransactionEvent) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	})
	bus.Start(context.Background())

	for i := 0; i < 50; i++ {
		bus.Publish(models.TransactionEvent{TransactionID: fmt.Sprintf("tx-%d", i)})
	}
	bus.Close()

	mu.Lock()
	defer mu.Unlock()
	if count != 50 {
		t.Fatalf("drained %d events, want 50", count)
	}
}
