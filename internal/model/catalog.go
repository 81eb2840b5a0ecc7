package model

// CatalogEntry is long-lived reference data that work items point at for
// realism. Entries are created once at startup and immutable thereafter.
type CatalogEntry struct {
	ID      string
	Payload []byte
}

// Catalog holds the fixed set of catalog entries. It is built once and is
// safe for concurrent reads; work items reference entries, they never own them.
type Catalog struct {
	entries []CatalogEntry
}

// NewCatalog builds a catalog of size entries, each carrying a payload of
// payloadBytes. Size is clamped to at least one entry so callers can always
// pick a reference.
func NewCatalog(size, payloadBytes int) *Catalog {
	if size < 1 {
		size = 1
	}
	entries := make([]CatalogEntry, size)
	for i := range entries {
		entries[i] = CatalogEntry{
			ID:      NewID(),
			Payload: make([]byte, payloadBytes),
		}
	}
	return &Catalog{entries: entries}
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entry returns the catalog entry at index i.
func (c *Catalog) Entry(i int) CatalogEntry {
	return c.entries[i]
}
