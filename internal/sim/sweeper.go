package sim

import (
	"context"
	"log/slog"
	"time"

	"github.com/seantiz/ordersim/internal/cache"
	"github.com/seantiz/ordersim/internal/config"
	"github.com/seantiz/ordersim/internal/metrics"
)

// sweeper retires expired items from the active set into the completed log,
// releasing their gate slots. Per-tick work is bounded so a large backlog
// never turns into one long scan.
type sweeper struct {
	cfg       config.Sim
	active    *ActiveSet
	cache     *cache.Cache
	completed *CompletedLog
	gate      *Gate
	agg       *metrics.Aggregator
	logger    *slog.Logger
}

func newSweeper(o *Orchestrator) *sweeper {
	return &sweeper{
		cfg:       o.cfg,
		active:    o.active,
		cache:     o.cache,
		completed: o.completed,
		gate:      o.gate,
		agg:       o.agg,
		logger:    o.logger,
	}
}

// run sweeps until the context is cancelled, checking cancellation once per
// tick.
func (s *sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(now.UTC())
		}
	}
}

// sweep retires up to SweepLimit expired items. A failed retirement is logged
// and the item stays in the active set for the next tick.
func (s *sweeper) sweep(now time.Time) {
	for _, id := range s.active.ExpiredIDs(now, s.cfg.SweepLimit) {
		if err := s.retire(id, now); err != nil {
			s.logger.Error("retire item", "item_id", id, "error", err)
		}
	}
}

// retire moves one item from the active set to the completed log and frees
// its gate slot. An item already claimed by a concurrent sweep is a no-op.
func (s *sweeper) retire(id uint64, now time.Time) error {
	item, ok := s.active.Remove(id)
	if !ok {
		return nil
	}

	s.cache.Delete(id)
	s.completed.Append(item)
	s.gate.Release()
	s.agg.IncCompleted()
	s.agg.RecordLatency(now.Sub(item.CreatedAt))
	return nil
}
