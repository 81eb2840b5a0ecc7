package cache

import (
	"container/list"
	"sync"

	"github.com/seantiz/ordersim/internal/metrics"
	"github.com/seantiz/ordersim/internal/model"
)

// Cache is a fixed-capacity key-value store for work items with batched FIFO
// eviction. It is safe for concurrent use.
//
// The backing map and the insertion-order index are updated together under
// one lock, so each operation is a single logical unit. Deleted keys leave a
// stale entry in the index; eviction skips those as benign no-ops.
type Cache struct {
	mu       sync.Mutex
	items    map[uint64]*model.WorkItem
	order    *list.List // uint64 keys, oldest at the front
	capacity int
	batch    int

	agg *metrics.Aggregator // optional eviction instrumentation, may be nil
}

// New creates a cache holding at most capacity items. A put that leaves the
// cache over capacity evicts the oldest keys, at most batch per operation.
// agg, when non-nil, receives eviction counts.
func New(capacity, batch int, agg *metrics.Aggregator) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	if batch < 1 {
		batch = 1
	}
	return &Cache{
		items:    make(map[uint64]*model.WorkItem),
		order:    list.New(),
		capacity: capacity,
		batch:    batch,
		agg:      agg,
	}
}

// Capacity returns the fixed capacity set at construction.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Put inserts or replaces the item under key. Replacing an existing key keeps
// its original insertion position: eviction order is by first insertion, not
// recency. Put never fails; if the insert pushes the cache over capacity the
// oldest keys are evicted in one batch pass before Put returns.
func (c *Cache) Put(key uint64, item *model.WorkItem) {
	c.mu.Lock()
	evicted := c.putLocked(key, item)
	c.mu.Unlock()

	if evicted > 0 && c.agg != nil {
		c.agg.AddEvicted(uint64(evicted))
	}
}

func (c *Cache) putLocked(key uint64, item *model.WorkItem) int {
	if _, ok := c.items[key]; ok {
		c.items[key] = item
		return 0
	}

	c.items[key] = item
	c.order.PushBack(key)

	evicted := 0
	for len(c.items) > c.capacity && evicted < c.batch {
		front := c.order.Front()
		if front == nil {
			break
		}
		c.order.Remove(front)
		oldest := front.Value.(uint64)
		if _, ok := c.items[oldest]; !ok {
			// Stale index entry left behind by Delete; skip it.
			continue
		}
		delete(c.items, oldest)
		evicted++
	}
	return evicted
}

// Get returns the item under key, or false if it is absent or was evicted.
func (c *Cache) Get(key uint64) (*model.WorkItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	return item, ok
}

// Delete removes the item under key. Missing keys are ignored. The insertion
// index is cleaned up lazily during later evictions.
func (c *Cache) Delete(key uint64) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len returns the number of items currently stored.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
