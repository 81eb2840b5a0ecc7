package metrics

import (
	"sync/atomic"
	"time"
)

// Aggregator accumulates simulation counters. All mutation paths are atomic,
// so generator and sweeper goroutines update it without shared locks.
type Aggregator struct {
	created   atomic.Uint64
	completed atomic.Uint64
	rejected  atomic.Uint64
	evicted   atomic.Uint64

	// Maximum observed completion latency since the last snapshot, in
	// nanoseconds. Reset on every Snapshot call.
	maxLatencyNs atomic.Int64

	// activeFn reports the current active working set size. May be nil.
	activeFn func() int
}

// NewAggregator creates an aggregator. activeFn supplies the live active-set
// size for snapshots; pass nil if there is no active set to observe.
func NewAggregator(activeFn func() int) *Aggregator {
	return &Aggregator{activeFn: activeFn}
}

// Snapshot is an immutable, point-in-time view of the counters. Cumulative
// fields only ever grow; MaxLatency covers the interval since the previous
// snapshot.
type Snapshot struct {
	Created    uint64        `json:"created"`
	Completed  uint64        `json:"completed"`
	Rejected   uint64        `json:"rejected"`
	Evicted    uint64        `json:"evicted"`
	Active     int           `json:"active"`
	MaxLatency time.Duration `json:"max_latency_ns"`
	TakenAt    time.Time     `json:"taken_at"`
}

// IncCreated records a generated item.
func (a *Aggregator) IncCreated() {
	a.created.Add(1)
}

// IncCompleted records a completed (retired or ephemeral) item.
func (a *Aggregator) IncCompleted() {
	a.completed.Add(1)
}

// IncRejected records an admission rejected by the gate.
func (a *Aggregator) IncRejected() {
	a.rejected.Add(1)
}

// AddEvicted records n cache evictions.
func (a *Aggregator) AddEvicted(n uint64) {
	a.evicted.Add(n)
}

// RecordLatency folds a completion latency into the interval maximum.
func (a *Aggregator) RecordLatency(d time.Duration) {
	ns := int64(d)
	for {
		cur := a.maxLatencyNs.Load()
		if ns <= cur || a.maxLatencyNs.CompareAndSwap(cur, ns) {
			return
		}
	}
}

// Created returns the cumulative created count.
func (a *Aggregator) Created() uint64 { return a.created.Load() }

// Completed returns the cumulative completed count.
func (a *Aggregator) Completed() uint64 { return a.completed.Load() }

// Rejected returns the cumulative rejected count.
func (a *Aggregator) Rejected() uint64 { return a.rejected.Load() }

// Evicted returns the cumulative cache eviction count.
func (a *Aggregator) Evicted() uint64 { return a.evicted.Load() }

// Active returns the current active working set size, or 0 without a source.
func (a *Aggregator) Active() int {
	if a.activeFn == nil {
		return 0
	}
	return a.activeFn()
}

// MaxLatencyObserved returns the interval maximum without resetting it.
// Used by the Prometheus collector, which must not disturb snapshot state.
func (a *Aggregator) MaxLatencyObserved() time.Duration {
	return time.Duration(a.maxLatencyNs.Load())
}

// Snapshot captures the counters at a point in time. The interval maximum
// latency is consumed: it resets to zero for the next interval. Counters may
// advance concurrently, so the snapshot is eventually consistent rather than
// a perfect cut, but each field is read atomically and cumulative fields
// never regress across successive snapshots.
func (a *Aggregator) Snapshot() Snapshot {
	return Snapshot{
		Created:    a.created.Load(),
		Completed:  a.completed.Load(),
		Rejected:   a.rejected.Load(),
		Evicted:    a.evicted.Load(),
		Active:     a.Active(),
		MaxLatency: time.Duration(a.maxLatencyNs.Swap(0)),
		TakenAt:    time.Now().UTC(),
	}
}
