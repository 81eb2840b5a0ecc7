package store

import (
	"context"
	"errors"
	"time"

	"github.com/seantiz/ordersim/internal/metrics"
	"github.com/seantiz/ordersim/internal/model"
)

// ErrNotFound is returned when a run is not found.
var ErrNotFound = errors.New("run not found")

// RunStats holds aggregate statistics over all recorded runs.
type RunStats struct {
	TotalRuns      int            `json:"total_runs"`
	CountByState   map[string]int `json:"count_by_state"`
	CountByMode    map[string]int `json:"count_by_mode"`
	TotalSnapshots int            `json:"total_snapshots"`
}

// Store defines the persistence operations for run history. The engine treats
// the store as optional: core simulation semantics never depend on it.
type Store interface {
	CreateRun(ctx context.Context, run *model.Run) error
	FinishRun(ctx context.Context, id, state string, stoppedAt time.Time) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*model.Run, int, error)
	InsertSnapshot(ctx context.Context, runID string, snap metrics.Snapshot) error
	ListSnapshots(ctx context.Context, runID string) ([]metrics.Snapshot, error)
	GetRunStats(ctx context.Context) (*RunStats, error)
	Close() error
}
