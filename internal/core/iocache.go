package core

import (
	"sync"

	"github.com/hivefs/hivefs/internal/metrics"
)

// ioCache is the per-device index of resident cached I/O units, keyed
// by media offset. The external cache owns the units and their
// contents; this index only tracks residency against the process-wide
// soft cap.
type ioCache struct {
	mu       sync.Mutex
	counters *metrics.Counters
	units    map[uint64]struct{}
}

func newIOCache(counters *metrics.Counters) *ioCache {
	return &ioCache{
		counters: counters,
		units:    make(map[uint64]struct{}),
	}
}

// insert records a resident unit. Returns false if already resident.
func (c *ioCache) insert(off uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.units[off]; ok {
		return false
	}
	c.units[off] = struct{}{}
	c.counters.AddIOUnits(1)
	return true
}

// remove drops a resident unit. Returns false if absent.
func (c *ioCache) remove(off uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.units[off]; !ok {
		return false
	}
	delete(c.units, off)
	c.counters.AddIOUnits(-1)
	return true
}

// len returns the resident unit count.
func (c *ioCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.units)
}

// drain empties the index at device teardown and returns how many
// entries were still resident; anything nonzero is a leak to report.
func (c *ioCache) drain() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	leaked := len(c.units)
	if leaked > 0 {
		c.counters.AddIOUnits(int64(-leaked))
		c.units = make(map[uint64]struct{})
	}
	return leaked
}
