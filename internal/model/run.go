package model

import "time"

// Run state constants.
const (
	StateCreated         = "created"
	StateRunning         = "running"
	StateStopping        = "stopping"
	StateStopped         = "stopped"
	StateStoppedDegraded = "stopped_degraded"
)

// Generation mode constants.
const (
	ModeSteady = "steady"
	ModeBursty = "bursty"
)

// validTransitions maps each run state to the set of states it may transition to.
var validTransitions = map[string]map[string]bool{
	StateCreated: {
		StateRunning: true,
	},
	StateRunning: {
		StateStopping: true,
	},
	StateStopping: {
		StateStopped:         true,
		StateStoppedDegraded: true,
	},
}

// ValidTransition reports whether transitioning from one run state to another is allowed.
func ValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Run represents a single simulation run recorded in the store.
type Run struct {
	ID        string     `json:"id"`
	Mode      string     `json:"mode"`
	Workers   int        `json:"workers"`
	State     string     `json:"state"`
	StartedAt time.Time  `json:"started_at"`
	StoppedAt *time.Time `json:"stopped_at,omitempty"`
}
