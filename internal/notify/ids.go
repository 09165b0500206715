package notify

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
)

// IDSource hands out notification IDs.
type IDSource interface {
	NextID() NotificationID
}

// Counter yields increasing IDs starting at 1, skipping zero on wrap.
type Counter struct {
	next atomic.Uint32
}

// NewCounter returns a counter whose first ID is start (or 1 if start is 0).
func NewCounter(start NotificationID) *Counter {
	c := &Counter{}
	if start > 0 {
		c.next.Store(uint32(start) - 1)
	}
	return c
}

// NextID implements IDSource.
func (c *Counter) NextID() NotificationID {
	for {
		if id := c.next.Add(1); id != 0 {
			return NotificationID(id)
		}
	}
}

// Random yields non-zero pseudo-random IDs from its own seeded generator.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a random ID source seeded with seed.
func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NextID implements IDSource.
func (r *Random) NextID() NotificationID {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		if id := r.rng.Uint32(); id != 0 {
			return NotificationID(id)
		}
	}
}

// NewIDSource builds the source named by kind ("counter" or "random").
func NewIDSource(kind string, seed uint64) (IDSource, error) {
	switch strings.ToLower(kind) {
	case "", "counter":
		return NewCounter(1), nil
	case "random":
		return NewRandom(seed), nil
	default:
		return nil, fmt.Errorf("unknown id source %q", kind)
	}
}
