package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/ordersim/internal/metrics"
	"github.com/seantiz/ordersim/internal/model"
	"github.com/seantiz/ordersim/internal/store"
)

// listRunsResponse wraps the paginated run history.
type listRunsResponse struct {
	Runs   []*model.Run `json:"runs"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "run history disabled")
		return
	}

	limit := parseIntQuery(r, "limit", defaultListLimit)
	offset := parseIntQuery(r, "offset", 0)

	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	runs, total, err := s.store.ListRuns(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list runs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	if runs == nil {
		runs = []*model.Run{}
	}

	s.writeJSON(w, http.StatusOK, listRunsResponse{
		Runs:   runs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// snapshotsResponse is the JSON response for GET /v1/runs/:id/snapshots.
type snapshotsResponse struct {
	RunID     string             `json:"run_id"`
	Snapshots []metrics.Snapshot `json:"snapshots"`
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "run history disabled")
		return
	}

	id := chi.URLParam(r, "id")

	// Verify the run exists so a typo'd ID is a 404, not an empty list.
	if _, err := s.store.GetRun(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.logger.Error("get run for snapshots", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	snaps, err := s.store.ListSnapshots(r.Context(), id)
	if err != nil {
		s.logger.Error("list snapshots", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}

	if snaps == nil {
		snaps = []metrics.Snapshot{}
	}

	s.writeJSON(w, http.StatusOK, snapshotsResponse{
		RunID:     id,
		Snapshots: snaps,
	})
}
