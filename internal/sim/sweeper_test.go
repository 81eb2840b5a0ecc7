package sim

import (
	"testing"
	"time"
)

func seedRetained(t *testing.T, o *Orchestrator, id uint64, expiresAt time.Time) {
	t.Helper()
	if err := o.gate.TryAdmit(); err != nil {
		t.Fatalf("TryAdmit: %v", err)
	}
	item := retainedItem(id, expiresAt)
	o.active.Add(item)
	o.cache.Put(item.ID, item)
	o.agg.IncCreated()
}

func TestSweepRetiresExpiredItems(t *testing.T) {
	o := newTestOrchestrator(t, testSimConfig())
	sw := newSweeper(o)
	now := time.Now().UTC()

	seedRetained(t, o, 1, now.Add(-time.Second))
	seedRetained(t, o, 2, now.Add(-time.Second))
	seedRetained(t, o, 3, now.Add(time.Hour))

	sw.sweep(now)

	if o.active.Len() != 1 {
		t.Errorf("active set size = %d, want 1", o.active.Len())
	}
	if _, ok := o.cache.Get(1); ok {
		t.Error("retired item 1 still in cache")
	}
	if _, ok := o.cache.Get(3); !ok {
		t.Error("live item 3 missing from cache")
	}
	if o.completed.Len() != 2 {
		t.Errorf("completed log size = %d, want 2", o.completed.Len())
	}
	if got := o.agg.Completed(); got != 2 {
		t.Errorf("completed = %d, want 2", got)
	}
	if o.gate.InUse() != 1 {
		t.Errorf("gate InUse = %d, want 1", o.gate.InUse())
	}
}

func TestSweepBoundedBySweepLimit(t *testing.T) {
	cfg := testSimConfig()
	cfg.SweepLimit = 3
	o := newTestOrchestrator(t, cfg)
	sw := newSweeper(o)
	now := time.Now().UTC()

	for i := uint64(1); i <= 10; i++ {
		seedRetained(t, o, i, now.Add(-time.Minute))
	}

	sw.sweep(now)
	if o.active.Len() != 7 {
		t.Errorf("active set size after first sweep = %d, want 7", o.active.Len())
	}

	// The backlog drains across ticks, never in one scan.
	sw.sweep(now)
	sw.sweep(now)
	sw.sweep(now.Add(time.Second))
	if o.active.Len() != 0 {
		t.Errorf("active set size after draining = %d, want 0", o.active.Len())
	}
	if o.completed.Len() != 10 {
		t.Errorf("completed log size = %d, want 10", o.completed.Len())
	}
}

func TestRetireMissingItemIsNoOp(t *testing.T) {
	o := newTestOrchestrator(t, testSimConfig())
	sw := newSweeper(o)

	if err := sw.retire(42, time.Now().UTC()); err != nil {
		t.Errorf("retire(42) = %v, want nil", err)
	}
	if got := o.agg.Completed(); got != 0 {
		t.Errorf("completed = %d, want 0", got)
	}
}

func TestRetireRecordsLatency(t *testing.T) {
	o := newTestOrchestrator(t, testSimConfig())
	sw := newSweeper(o)
	now := time.Now().UTC()

	seedRetained(t, o, 1, now.Add(-time.Millisecond))
	sw.sweep(now)

	if got := o.agg.MaxLatencyObserved(); got < time.Second {
		t.Errorf("MaxLatencyObserved = %v, want at least the item's 1s age", got)
	}
}

func TestRetireFreesSlotForNewAdmissions(t *testing.T) {
	cfg := testSimConfig()
	cfg.MaxActive = 1
	o := newTestOrchestrator(t, cfg)
	sw := newSweeper(o)
	now := time.Now().UTC()

	seedRetained(t, o, 1, now.Add(-time.Second))
	if err := o.gate.TryAdmit(); err == nil {
		t.Fatal("gate admitted past ceiling")
	}

	sw.sweep(now)
	if err := o.gate.TryAdmit(); err != nil {
		t.Errorf("TryAdmit after retirement: %v", err)
	}
}
