package sim

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/seantiz/ordersim/internal/cache"
	"github.com/seantiz/ordersim/internal/config"
	"github.com/seantiz/ordersim/internal/metrics"
	"github.com/seantiz/ordersim/internal/model"
)

// generator is a single producer worker. It paces item creation so that all
// workers together hit the configured aggregate rate, re-reading the shared
// burst flag at every tick.
type generator struct {
	id      int
	cfg     config.Sim
	catalog *model.Catalog
	gate    *Gate
	cache   *cache.Cache
	active  *ActiveSet
	agg     *metrics.Aggregator
	burst   *atomic.Bool
	nextID  *atomic.Uint64
	rng     *rand.Rand
	logger  *slog.Logger
}

func newGenerator(id int, o *Orchestrator) *generator {
	return &generator{
		id:      id,
		cfg:     o.cfg,
		catalog: o.catalog,
		gate:    o.gate,
		cache:   o.cache,
		active:  o.active,
		agg:     o.agg,
		burst:   &o.burst,
		nextID:  &o.nextID,
		rng:     rand.New(rand.NewPCG(uint64(id), uint64(time.Now().UnixNano()))),
		logger:  o.logger.With("worker", id),
	}
}

// run produces items until the context is cancelled, checking cancellation
// once per tick. A failure inside a single production step is logged and the
// loop continues; one bad item never takes the worker down.
func (g *generator) run(ctx context.Context) {
	timer := time.NewTimer(g.pace())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if err := g.produce(); err != nil {
			g.logger.Error("produce item", "error", err)
		}

		timer.Reset(g.pace())
	}
}

// pace returns the inter-arrival spacing for the next tick. The burst flag is
// read fresh each call, so a toggle becomes visible to every worker on its
// next tick without blocking any of them.
func (g *generator) pace() time.Duration {
	rate := float64(g.cfg.Rate)
	if g.burst.Load() {
		rate *= g.cfg.BurstMultiplier
	}
	perWorker := rate / float64(g.cfg.Workers)
	if perWorker <= 0 {
		return time.Second
	}
	return time.Duration(float64(time.Second) / perWorker)
}

// produce creates one item. Ephemeral items complete immediately and are
// never stored. Retained items pass through the gate; a rejection is recorded
// and the item dropped, with no retry and no blocking.
func (g *generator) produce() error {
	now := time.Now().UTC()

	size := g.cfg.PayloadMinBytes
	if spread := g.cfg.PayloadMaxBytes - g.cfg.PayloadMinBytes; spread > 0 {
		size += g.rng.IntN(spread + 1)
	}

	item := &model.WorkItem{
		ID:        g.nextID.Add(1),
		CatalogID: g.catalog.Entry(g.rng.IntN(g.catalog.Len())).ID,
		Payload:   make([]byte, size),
		Retention: model.RetentionEphemeral,
		CreatedAt: now,
	}
	if g.rng.Float64() < g.cfg.RetainedProbability {
		item.Retention = model.RetentionRetained
		item.ExpiresAt = now.Add(g.cfg.ItemLifetime)
	}

	g.agg.IncCreated()

	if !item.Retained() {
		g.agg.RecordLatency(time.Since(now))
		g.agg.IncCompleted()
		return nil
	}

	if err := g.gate.TryAdmit(); err != nil {
		g.agg.IncRejected()
		return nil
	}

	g.active.Add(item)
	g.cache.Put(item.ID, item)
	return nil
}
