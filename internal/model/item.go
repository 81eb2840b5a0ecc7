package model

import "time"

// Retention class constants.
const (
	RetentionEphemeral = "ephemeral"
	RetentionRetained  = "retained"
)

// WorkItem is a synthetic unit of simulated work, modeled on a retail order.
// The payload simulates the item's allocation footprint. Items are never
// mutated after creation; only their container membership changes as they
// move from the active set into the completed log.
type WorkItem struct {
	ID        uint64    `json:"id"`
	CatalogID string    `json:"catalog_id"`
	Payload   []byte    `json:"-"`
	Retention string    `json:"retention"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Retained reports whether the item belongs to the retained class.
func (w *WorkItem) Retained() bool {
	return w.Retention == RetentionRetained
}

// Expired reports whether the item's lifetime has elapsed at now.
// Ephemeral items carry no expiry and never report expired.
func (w *WorkItem) Expired(now time.Time) bool {
	return !w.ExpiresAt.IsZero() && now.After(w.ExpiresAt)
}
