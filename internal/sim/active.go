package sim

import (
	"sync"
	"time"

	"github.com/seantiz/ordersim/internal/model"
)

// ActiveSet holds the retained work items currently live. All access goes
// through its methods; generator and sweeper goroutines never touch the map
// directly.
type ActiveSet struct {
	mu    sync.Mutex
	items map[uint64]*model.WorkItem
}

// NewActiveSet creates an empty active working set.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{items: make(map[uint64]*model.WorkItem)}
}

// Add inserts an admitted item.
func (s *ActiveSet) Add(item *model.WorkItem) {
	s.mu.Lock()
	s.items[item.ID] = item
	s.mu.Unlock()
}

// Remove takes the item out of the set, reporting whether it was present.
// A false return means another sweep already claimed it.
func (s *ActiveSet) Remove(id uint64) (*model.WorkItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if ok {
		delete(s.items, id)
	}
	return item, ok
}

// Len returns the current set size.
func (s *ActiveSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// ExpiredIDs returns up to limit IDs of items expired at now. Items stay in
// the set until retirement removes them, so a failed retirement is simply
// picked up again on the next sweep.
func (s *ActiveSet) ExpiredIDs(now time.Time, limit int) []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []uint64
	for id, item := range s.items {
		if len(ids) >= limit {
			break
		}
		if item.Expired(now) {
			ids = append(ids, id)
		}
	}
	return ids
}
