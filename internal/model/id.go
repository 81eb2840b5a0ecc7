package model

import "github.com/oklog/ulid/v2"

// NewID generates a new ULID string for use as a run or catalog identifier.
// Work item IDs are assigned from a monotonic counter instead; see sim.
func NewID() string {
	return ulid.Make().String()
}
