package sim

import (
	"errors"
	"sync/atomic"
)

// ErrBackpressure is the gate's rejection signal. It is expected under load:
// callers record it and drop the item rather than queueing or retrying.
var ErrBackpressure = errors.New("admission rejected: active item ceiling reached")

// Gate enforces the active-item ceiling. Admission is non-blocking and
// rejection-based: once the ceiling is reached new retained work is shed
// instead of queued.
type Gate struct {
	max  int64
	used atomic.Int64
}

// NewGate creates a gate admitting at most max items at once.
func NewGate(max int) *Gate {
	if max < 0 {
		max = 0
	}
	return &Gate{max: int64(max)}
}

// TryAdmit reserves a slot, or returns ErrBackpressure when none is free.
// A nil return guarantees a slot was available at decision time; the caller
// owns that slot until it calls Release for the corresponding item.
func (g *Gate) TryAdmit() error {
	for {
		used := g.used.Load()
		if used >= g.max {
			return ErrBackpressure
		}
		if g.used.CompareAndSwap(used, used+1) {
			return nil
		}
	}
}

// Release frees a slot reserved by an earlier TryAdmit.
func (g *Gate) Release() {
	g.used.Add(-1)
}

// InUse returns the number of reserved slots.
func (g *Gate) InUse() int {
	return int(g.used.Load())
}
