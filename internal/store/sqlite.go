package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/seantiz/ordersim/internal/metrics"
	"github.com/seantiz/ordersim/internal/model"

	_ "modernc.org/sqlite"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
    id         TEXT PRIMARY KEY,
    mode       TEXT NOT NULL,
    workers    INTEGER NOT NULL,
    state      TEXT NOT NULL,
    started_at DATETIME NOT NULL,
    stopped_at DATETIME
)`

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS snapshots (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id         TEXT NOT NULL,
    created        INTEGER NOT NULL,
    completed      INTEGER NOT NULL,
    rejected       INTEGER NOT NULL,
    evicted        INTEGER NOT NULL,
    active         INTEGER NOT NULL,
    max_latency_ns INTEGER NOT NULL,
    taken_at       DATETIME NOT NULL
)`

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(createRunsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}

	if _, err := db.Exec(createSnapshotsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRun inserts a new run record.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *model.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, mode, workers, state, started_at, stopped_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Mode, run.Workers, run.State, run.StartedAt, run.StoppedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun records a run's terminal state and stop time.
func (s *SQLiteStore) FinishRun(ctx context.Context, id, state string, stoppedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET state = ?, stopped_at = ? WHERE id = ?`,
		state, stoppedAt, id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	run := &model.Run{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, mode, workers, state, started_at, stopped_at
		FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Mode, &run.Workers, &run.State, &run.StartedAt, &run.StoppedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns a paginated list of runs ordered by started_at DESC, along
// with the total count of all runs.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit, offset int) ([]*model.Run, int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count runs: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, mode, workers, state, started_at, stopped_at
		FROM runs ORDER BY started_at DESC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run := &model.Run{}
		if err := rows.Scan(&run.ID, &run.Mode, &run.Workers, &run.State, &run.StartedAt, &run.StoppedAt); err != nil {
			return nil, 0, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, total, nil
}

// InsertSnapshot appends a metrics snapshot to a run's history.
func (s *SQLiteStore) InsertSnapshot(ctx context.Context, runID string, snap metrics.Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (run_id, created, completed, rejected, evicted, active, max_latency_ns, taken_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, snap.Created, snap.Completed, snap.Rejected, snap.Evicted,
		snap.Active, int64(snap.MaxLatency), snap.TakenAt,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns a run's snapshot history in capture order.
func (s *SQLiteStore) ListSnapshots(ctx context.Context, runID string) ([]metrics.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT created, completed, rejected, evicted, active, max_latency_ns, taken_at
		FROM snapshots WHERE run_id = ? ORDER BY id ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []metrics.Snapshot
	for rows.Next() {
		var snap metrics.Snapshot
		var latencyNs int64
		if err := rows.Scan(&snap.Created, &snap.Completed, &snap.Rejected,
			&snap.Evicted, &snap.Active, &latencyNs, &snap.TakenAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.MaxLatency = time.Duration(latencyNs)
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return snaps, nil
}

// GetRunStats aggregates run counts by state and mode plus the snapshot total.
func (s *SQLiteStore) GetRunStats(ctx context.Context) (*RunStats, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	stats := &RunStats{
		CountByState: make(map[string]int),
		CountByMode:  make(map[string]int),
	}

	rows, err := tx.QueryContext(ctx, "SELECT state, mode, COUNT(*) FROM runs GROUP BY state, mode")
	if err != nil {
		return nil, fmt.Errorf("aggregate runs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var state, mode string
		var count int
		if err := rows.Scan(&state, &mode, &count); err != nil {
			return nil, fmt.Errorf("scan run aggregate: %w", err)
		}
		stats.TotalRuns += count
		stats.CountByState[state] += count
		stats.CountByMode[mode] += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run aggregates: %w", err)
	}

	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots").Scan(&stats.TotalSnapshots); err != nil {
		return nil, fmt.Errorf("count snapshots: %w", err)
	}

	return stats, nil
}
