package sim

import (
	"sync"

	"github.com/seantiz/ordersim/internal/metrics"
)

// subscriberBufferSize is the channel buffer for each snapshot subscriber.
// Snapshots are dropped if a subscriber falls this far behind.
const subscriberBufferSize = 16

// Broker fans out periodic metrics snapshots to subscribers, typically SSE
// streams. It is safe for concurrent use. After Close, Subscribe returns a
// closed channel so late subscribers do not block forever.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]chan metrics.Snapshot
	nextID int
	closed bool
}

// NewBroker creates a snapshot broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan metrics.Snapshot)}
}

// Subscribe returns a channel receiving snapshots and an unsubscribe function.
// If the run has already finished the returned channel is immediately closed.
func (b *Broker) Subscribe() (<-chan metrics.Snapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan metrics.Snapshot, subscriberBufferSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish sends a snapshot to all subscribers. Snapshots are dropped for
// subscribers whose buffers are full, never blocking the reporter.
func (b *Broker) Publish(snap metrics.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Close signals that no more snapshots will be published. All subscriber
// channels are closed and future Subscribe calls return a closed channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
