package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestSnapshotCounters(t *testing.T) {
	agg := NewAggregator(func() int { return 7 })

	agg.IncCreated()
	agg.IncCreated()
	agg.IncCompleted()
	agg.IncRejected()
	agg.AddEvicted(3)

	snap := agg.Snapshot()
	if snap.Created != 2 {
		t.Errorf("Created = %d, want 2", snap.Created)
	}
	if snap.Completed != 1 {
		t.Errorf("Completed = %d, want 1", snap.Completed)
	}
	if snap.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", snap.Rejected)
	}
	if snap.Evicted != 3 {
		t.Errorf("Evicted = %d, want 3", snap.Evicted)
	}
	if snap.Active != 7 {
		t.Errorf("Active = %d, want 7", snap.Active)
	}
	if snap.TakenAt.IsZero() {
		t.Error("TakenAt is zero")
	}
}

func TestNilActiveSource(t *testing.T) {
	agg := NewAggregator(nil)
	if got := agg.Snapshot().Active; got != 0 {
		t.Errorf("Active = %d, want 0", got)
	}
}

func TestMaxLatencyGetAndReset(t *testing.T) {
	agg := NewAggregator(nil)

	agg.RecordLatency(10 * time.Millisecond)
	agg.RecordLatency(50 * time.Millisecond)
	agg.RecordLatency(20 * time.Millisecond)

	if got := agg.Snapshot().MaxLatency; got != 50*time.Millisecond {
		t.Errorf("MaxLatency = %v, want 50ms", got)
	}

	// Interval maximum resets on read; cumulative counters do not.
	if got := agg.Snapshot().MaxLatency; got != 0 {
		t.Errorf("MaxLatency after reset = %v, want 0", got)
	}

	agg.RecordLatency(5 * time.Millisecond)
	if got := agg.Snapshot().MaxLatency; got != 5*time.Millisecond {
		t.Errorf("MaxLatency in new interval = %v, want 5ms", got)
	}
}

func TestConcurrentIncrements(t *testing.T) {
	agg := NewAggregator(nil)

	const goroutines = 8
	const perGoroutine = 1000

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Go(func() {
			for j := 0; j < perGoroutine; j++ {
				agg.IncCreated()
				agg.IncCompleted()
				agg.RecordLatency(time.Duration(j) * time.Microsecond)
			}
		})
	}
	wg.Wait()

	snap := agg.Snapshot()
	if snap.Created != goroutines*perGoroutine {
		t.Errorf("Created = %d, want %d", snap.Created, goroutines*perGoroutine)
	}
	if snap.Completed != goroutines*perGoroutine {
		t.Errorf("Completed = %d, want %d", snap.Completed, goroutines*perGoroutine)
	}
	if snap.MaxLatency != time.Duration(perGoroutine-1)*time.Microsecond {
		t.Errorf("MaxLatency = %v, want %v", snap.MaxLatency, time.Duration(perGoroutine-1)*time.Microsecond)
	}
}

func TestSnapshotsNeverRegress(t *testing.T) {
	agg := NewAggregator(nil)

	var prev Snapshot
	for i := 0; i < 100; i++ {
		agg.IncCreated()
		if i%3 == 0 {
			agg.IncCompleted()
		}
		snap := agg.Snapshot()
		if snap.Created < prev.Created || snap.Completed < prev.Completed {
			t.Fatalf("cumulative counters regressed: %+v -> %+v", prev, snap)
		}
		prev = snap
	}
}

func TestCollectorGathers(t *testing.T) {
	agg := NewAggregator(func() int { return 3 })
	agg.IncCreated()
	agg.IncCreated()
	agg.IncRejected()

	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(NewCollector(agg)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	got := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				got[mf.GetName()] = c.GetValue()
			} else if g := m.GetGauge(); g != nil {
				got[mf.GetName()] = g.GetValue()
			}
		}
	}

	want := map[string]float64{
		"ordersim_items_created_total":  2,
		"ordersim_items_rejected_total": 1,
		"ordersim_active_items":         3,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s = %v, want %v", name, got[name], v)
		}
	}
}
