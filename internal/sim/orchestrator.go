package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/seantiz/ordersim/internal/cache"
	"github.com/seantiz/ordersim/internal/config"
	"github.com/seantiz/ordersim/internal/metrics"
	"github.com/seantiz/ordersim/internal/model"
	"github.com/seantiz/ordersim/internal/store"
)

// ErrDegradedShutdown is returned by Stop when workers fail to exit within
// the timeout. The condition is logged and surfaced, never escalated to a
// process-fatal error.
var ErrDegradedShutdown = errors.New("degraded shutdown: workers did not exit within timeout")

// Orchestrator owns every piece of shared simulation state and coordinates
// the worker goroutines. There are no package-level singletons: all components
// live on the orchestrator and are handed to workers by reference.
type Orchestrator struct {
	cfg    config.Sim
	logger *slog.Logger
	st     store.Store // optional, may be nil

	catalog   *model.Catalog
	gate      *Gate
	active    *ActiveSet
	cache     *cache.Cache
	completed *CompletedLog
	agg       *metrics.Aggregator
	broker    *Broker

	runID  string
	burst  atomic.Bool
	nextID atomic.Uint64

	mu     sync.Mutex
	state  string
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires up a simulation run in the created state. st may be nil to
// disable run-history persistence.
func New(cfg config.Sim, st store.Store, logger *slog.Logger) *Orchestrator {
	active := NewActiveSet()
	agg := metrics.NewAggregator(active.Len)

	return &Orchestrator{
		cfg:       cfg,
		logger:    logger,
		st:        st,
		catalog:   model.NewCatalog(cfg.CatalogSize, cfg.PayloadMinBytes),
		gate:      NewGate(cfg.MaxActive),
		active:    active,
		cache:     cache.New(cfg.CacheCapacity, cfg.EvictionBatchSize, agg),
		completed: NewCompletedLog(cfg.CompletedLogCapacity),
		agg:       agg,
		broker:    NewBroker(),
		runID:     model.NewID(),
		state:     model.StateCreated,
	}
}

// RunID returns the run's ULID.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Mode returns the configured generation mode.
func (o *Orchestrator) Mode() string {
	return o.cfg.Mode
}

// StopTimeout returns the configured shutdown timeout.
func (o *Orchestrator) StopTimeout() time.Duration {
	return o.cfg.ShutdownTimeout
}

// Snapshot captures the current metrics. The interval maximum latency is
// consumed by the read; cumulative counters are not.
func (o *Orchestrator) Snapshot() metrics.Snapshot {
	return o.agg.Snapshot()
}

// Metrics returns the run's aggregator, for metric export.
func (o *Orchestrator) Metrics() *metrics.Aggregator {
	return o.agg
}

// Broker returns the snapshot broker for live streaming.
func (o *Orchestrator) Broker() *Broker {
	return o.broker
}

// Completed returns the bounded retired-item history.
func (o *Orchestrator) Completed() *CompletedLog {
	return o.completed
}

// SetBurst toggles the shared burst flag. Every generator worker observes the
// new value at the start of its next production tick.
func (o *Orchestrator) SetBurst(on bool) {
	o.burst.Store(on)
}

// Burst reports whether a burst window is currently open.
func (o *Orchestrator) Burst() bool {
	return o.burst.Load()
}

// Start transitions the run to running and launches the generator workers,
// the sweeper, the metrics reporter, and (in bursty mode) the burst toggler.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.transition(model.StateCreated, model.StateRunning); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	if o.st != nil {
		run := &model.Run{
			ID:        o.runID,
			Mode:      o.cfg.Mode,
			Workers:   o.cfg.Workers,
			State:     model.StateRunning,
			StartedAt: time.Now().UTC(),
		}
		if err := o.st.CreateRun(context.Background(), run); err != nil {
			o.logger.Error("record run start", "run_id", o.runID, "error", err)
		}
	}

	for i := 0; i < o.cfg.Workers; i++ {
		g := newGenerator(i, o)
		o.wg.Go(func() {
			g.run(ctx)
		})
	}

	sw := newSweeper(o)
	o.wg.Go(func() {
		sw.run(ctx)
	})

	o.wg.Go(func() {
		o.report(ctx)
	})

	if o.cfg.Mode == model.ModeBursty {
		o.wg.Go(func() {
			o.burstLoop(ctx)
		})
	}

	o.logger.Info("simulation started",
		"run_id", o.runID,
		"mode", o.cfg.Mode,
		"workers", o.cfg.Workers,
		"rate", o.cfg.Rate,
		"max_active", o.cfg.MaxActive,
	)
	return nil
}

// Stop cancels the shared context and waits up to timeout for every worker
// to exit. Cancellation is cooperative: each loop checks it once per tick.
// If the timeout elapses first the run ends in the degraded state and worker
// state is left as-is rather than forcibly destroyed.
func (o *Orchestrator) Stop(timeout time.Duration) error {
	if err := o.transition(model.StateRunning, model.StateStopping); err != nil {
		return err
	}

	o.logger.Info("stopping simulation", "run_id", o.runID, "timeout", timeout)
	o.cancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	final := model.StateStopped
	var stopErr error
	select {
	case <-done:
	case <-time.After(timeout):
		final = model.StateStoppedDegraded
		stopErr = ErrDegradedShutdown
		o.logger.Error("degraded shutdown", "run_id", o.runID, "timeout", timeout)
	}

	if err := o.transition(model.StateStopping, final); err != nil {
		// Stopping is entered exactly once per Stop call, so this only
		// trips if the state machine itself is broken.
		o.logger.Error("finalize state", "run_id", o.runID, "error", err)
	}

	o.broker.Close()

	snap := o.agg.Snapshot()
	if o.st != nil {
		if err := o.st.InsertSnapshot(context.Background(), o.runID, snap); err != nil {
			o.logger.Error("persist final snapshot", "run_id", o.runID, "error", err)
		}
		if err := o.st.FinishRun(context.Background(), o.runID, final, time.Now().UTC()); err != nil {
			o.logger.Error("record run finish", "run_id", o.runID, "error", err)
		}
	}

	o.logger.Info("simulation stopped",
		"run_id", o.runID,
		"state", final,
		"created", snap.Created,
		"completed", snap.Completed,
		"rejected", snap.Rejected,
		"evicted", snap.Evicted,
		"active", snap.Active,
	)
	return stopErr
}

// transition applies a state change, enforcing the lifecycle table.
func (o *Orchestrator) transition(from, to string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != from || !model.ValidTransition(from, to) {
		return fmt.Errorf("invalid state transition %s -> %s", o.state, to)
	}
	o.state = to
	return nil
}

// report periodically snapshots the aggregator, logs the counters, publishes
// to the broker, and persists the snapshot when a store is configured.
func (o *Orchestrator) report(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		snap := o.agg.Snapshot()
		o.logger.Info("metrics",
			"run_id", o.runID,
			"created", snap.Created,
			"completed", snap.Completed,
			"rejected", snap.Rejected,
			"evicted", snap.Evicted,
			"active", snap.Active,
			"max_latency_ms", snap.MaxLatency.Milliseconds(),
		)
		o.broker.Publish(snap)

		if o.st != nil {
			if err := o.st.InsertSnapshot(context.Background(), o.runID, snap); err != nil {
				o.logger.Error("persist snapshot", "run_id", o.runID, "error", err)
			}
		}
	}
}

// burstLoop opens a burst window every BurstInterval for BurstDuration.
// Workers pick the flag up on their next tick; nothing blocks on the toggle.
func (o *Orchestrator) burstLoop(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.BurstInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		o.burst.Store(true)
		o.logger.Debug("burst window open", "run_id", o.runID, "duration", o.cfg.BurstDuration)

		select {
		case <-ctx.Done():
			o.burst.Store(false)
			return
		case <-time.After(o.cfg.BurstDuration):
		}

		o.burst.Store(false)
		o.logger.Debug("burst window closed", "run_id", o.runID)
	}
}
