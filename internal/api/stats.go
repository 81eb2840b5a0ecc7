package api

import (
	"net/http"
)

// statsResponse is the JSON response for GET /v1/stats.
type statsResponse struct {
	TotalRuns      int            `json:"total_runs"`
	ByState        map[string]int `json:"by_state"`
	ByMode         map[string]int `json:"by_mode"`
	TotalSnapshots int            `json:"total_snapshots"`
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "run history disabled")
		return
	}

	stats, err := s.store.GetRunStats(r.Context())
	if err != nil {
		s.logger.Error("get run stats", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	s.writeJSON(w, http.StatusOK, statsResponse{
		TotalRuns:      stats.TotalRuns,
		ByState:        stats.CountByState,
		ByMode:         stats.CountByMode,
		TotalSnapshots: stats.TotalSnapshots,
	})
}
