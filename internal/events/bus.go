// Package events carries TransactionCreated events from the recording path
// to reward processing over an in-process queue drained by a bounded worker
// pool. Publishing never waits on handler completion, and a handler failure
// never reaches the producer.
package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/greenworld/eco-rewards-service/internal/models"
)

// Handler consumes one transaction event. Returned errors are logged and
// swallowed; there is no automatic redelivery.
type Handler func(ctx context.Context, ev models.TransactionEvent) error

// Bus is an in-process publish/subscribe channel for transaction events.
type Bus struct {
	ch       chan models.TransactionEvent
	handlers []Handler
	workers  int
	log      *slog.Logger

	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// NewBus builds a bus with the given worker count and queue depth.
func NewBus(log *slog.Logger, workers, buffer int) *Bus {
	if workers <= 0 {
		workers = 4
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		ch:      make(chan models.TransactionEvent, buffer),
		workers: workers,
		log:     log,
	}
}

// Subscribe registers a handler. Must be called before Start.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Start launches the worker pool.
func (b *Bus) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return
	}
	b.started = true

	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.worker(ctx)
	}
}

// Publish enqueues an event for asynchronous delivery. A full queue applies
// back-pressure to the producer rather than dropping the event.
func (b *Bus) Publish(ev models.TransactionEvent) {
	b.ch <- ev
}

// Close stops accepting events, drains the queue and waits for in-flight
// handlers to finish.
func (b *Bus) Close() {
	close(b.ch)
	b.wg.Wait()
}

func (b *Bus) worker(ctx context.Context) {
	defer b.wg.Done()
	for ev := range b.ch {
		b.mu.Lock()
		handlers := b.handlers
		b.mu.Unlock()
		for _, h := range handlers {
			b.dispatch(ctx, h, ev)
		}
	}
}

// dispatch isolates a single handler call: errors and panics are logged and
// never propagate past the worker.
func (b *Bus) dispatch(ctx context.Context, h Handler, ev models.TransactionEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				"transaction_id", ev.TransactionID, "panic", r)
		}
	}()
	if err := h(ctx, ev); err != nil {
		b.log.Error("event handler failed",
			"transaction_id", ev.TransactionID,
			"member_id", ev.MemberID,
			"error", err)
	}
}
