package sim

import (
	"sync"

	"github.com/seantiz/ordersim/internal/model"
)

// CompletedLog is a bounded, most-recent-N history of retired items, kept
// only for inspection. When an append pushes it over capacity the oldest
// entries are trimmed first.
type CompletedLog struct {
	mu       sync.Mutex
	items    []*model.WorkItem
	capacity int
}

// NewCompletedLog creates a log retaining at most capacity items.
func NewCompletedLog(capacity int) *CompletedLog {
	if capacity < 1 {
		capacity = 1
	}
	return &CompletedLog{capacity: capacity}
}

// Append records a retired item, trimming oldest-first when over capacity.
func (l *CompletedLog) Append(item *model.WorkItem) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = append(l.items, item)
	if over := len(l.items) - l.capacity; over > 0 {
		l.items = append(l.items[:0:0], l.items[over:]...)
	}
}

// Len returns the number of retained history entries.
func (l *CompletedLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Items returns a copy of the history, oldest first.
func (l *CompletedLog) Items() []*model.WorkItem {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*model.WorkItem, len(l.items))
	copy(out, l.items)
	return out
}
