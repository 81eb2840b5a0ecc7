package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/seantiz/ordersim/internal/metrics"
	"github.com/seantiz/ordersim/internal/sim"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxBodySize      = 1 << 20 // 1 MB
)

// simResponse describes the current engine state for GET /v1/sim and the
// start/stop responses.
type simResponse struct {
	RunID    string           `json:"run_id"`
	State    string           `json:"state"`
	Mode     string           `json:"mode"`
	Burst    bool             `json:"burst"`
	Snapshot metrics.Snapshot `json:"snapshot"`
}

func (s *Server) simStatus(eng *sim.Orchestrator) simResponse {
	return simResponse{
		RunID:    eng.RunID(),
		State:    eng.State(),
		Mode:     eng.Mode(),
		Burst:    eng.Burst(),
		Snapshot: eng.Snapshot(),
	}
}

func (s *Server) handleGetSim(w http.ResponseWriter, r *http.Request) {
	eng := s.Engine()
	if eng == nil {
		s.writeError(w, http.StatusNotFound, "no simulation started")
		return
	}
	s.writeJSON(w, http.StatusOK, s.simStatus(eng))
}

func (s *Server) handleStartSim(w http.ResponseWriter, r *http.Request) {
	eng, err := s.StartRun(context.Background())
	if err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, s.simStatus(eng))
}

func (s *Server) handleStopSim(w http.ResponseWriter, r *http.Request) {
	eng := s.Engine()
	if eng == nil {
		s.writeError(w, http.StatusNotFound, "no simulation started")
		return
	}

	err := eng.Stop(eng.StopTimeout())
	if errors.Is(err, sim.ErrDegradedShutdown) {
		// Degraded is still a terminal stop; report it, don't fail the call.
		s.writeJSON(w, http.StatusOK, s.simStatus(eng))
		return
	}
	if err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.simStatus(eng))
}

// setBurstRequest is the JSON body for POST /v1/sim/burst.
type setBurstRequest struct {
	On bool `json:"on"`
}

func (s *Server) handleSetBurst(w http.ResponseWriter, r *http.Request) {
	eng := s.Engine()
	if eng == nil {
		s.writeError(w, http.StatusNotFound, "no simulation started")
		return
	}

	var req setBurstRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	eng.SetBurst(req.On)
	s.writeJSON(w, http.StatusOK, s.simStatus(eng))
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
