package toolcast

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/coregx/toolcast/model"
)

// DefaultEventBufferSize is the capacity of the bus hand-off channel.
const DefaultEventBufferSize = 256

// ItemPublished is raised exactly once per catalog item creation.
type ItemPublished struct {
	Snapshot    model.ItemSnapshot
	PublishedAt time.Time
}

// EventPublisher accepts publish events without blocking the caller.
// It returns false when the event was not accepted.
type EventPublisher interface {
	Publish(event ItemPublished) bool
}

// EventBus decouples the catalog state machine from the dispatcher.
// The catalog publishes into an unbounded FIFO; a pump goroutine hands the
// events to a buffered channel that the dispatcher consumes via Dispatcher.Run.
//
// Publish never blocks and never drops an event while the bus is open, however
// slow the consumer is. Only events published after Close are rejected.
type EventBus struct {
	out      chan ItemPublished
	logger   Logger
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []ItemPublished
	inFlight int // event taken from queue, blocked on a full out channel
	closed   bool
	dropped  atomic.Int64
}

// NewEventBus creates a bus whose hand-off channel holds capacity events.
// A capacity <= 0 uses DefaultEventBufferSize. The queue behind the channel
// is unbounded.
func NewEventBus(capacity int, logger Logger) *EventBus {
	if capacity <= 0 {
		capacity = DefaultEventBufferSize
	}
	if logger == nil {
		logger = &NoopLogger{}
	}
	b := &EventBus{
		out:    make(chan ItemPublished, capacity),
		logger: logger,
	}
	b.cond = sync.NewCond(&b.mu)
	go b.pump()
	return b
}

// Publish enqueues the event. It returns false only if the bus is closed.
func (b *EventBus) Publish(event ItemPublished) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		b.dropped.Add(1)
		b.logger.Warnf("Publish event dropped, bus closed: item_id=%d", event.Snapshot.ItemID)
		return false
	}

	b.queue = append(b.queue, event)
	if backlog := len(b.queue); backlog > cap(b.out) && backlog%cap(b.out) == 0 {
		b.logger.Warnf("Publish backlog growing: %d events waiting for the dispatcher", backlog)
	}
	b.cond.Signal()
	return true
}

// pump moves events from the queue to the out channel in publish order and
// closes out once the bus is closed and drained.
func (b *EventBus) pump() {
	defer close(b.out)

	b.mu.Lock()
	for {
		for len(b.queue) == 0 && !b.closed {
			b.cond.Wait()
		}
		if len(b.queue) == 0 {
			b.mu.Unlock()
			return
		}

		event := b.queue[0]
		b.queue[0] = ItemPublished{}
		b.queue = b.queue[1:]

		select {
		case b.out <- event:
			continue
		default:
		}

		// out is full: wait for the consumer without holding the lock.
		b.inFlight = 1
		b.mu.Unlock()
		b.out <- event
		b.mu.Lock()
		b.inFlight = 0
	}
}

// Events returns the receive side consumed by the dispatcher.
// The channel is closed after Close once every accepted event was delivered.
func (b *EventBus) Events() <-chan ItemPublished {
	return b.out
}

// Close stops accepting events. Accepted events remain readable until drained.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	b.cond.Broadcast()
}

// Pending returns the number of accepted events not yet consumed.
func (b *EventBus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue) + b.inFlight + len(b.out)
}

// Dropped returns the number of events rejected since creation.
func (b *EventBus) Dropped() int64 {
	return b.dropped.Load()
}
