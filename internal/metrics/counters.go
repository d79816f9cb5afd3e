package metrics

import (
	"sync/atomic"

	"github.com/hivefs/hivefs/pkg/types"
)

// Counters tracks the live allocation counts the lifecycle core
// exposes to the hosting environment: resident filesystem objects,
// live metadata objects, and resident cached I/O units, plus the one
// read-write tunable, the I/O-unit soft cap.
type Counters struct {
	fsObjects   atomic.Int64
	metaObjects atomic.Int64
	ioUnits     atomic.Int64
	ioUnitLimit atomic.Int64
}

// NewCounters returns zeroed counters with the given I/O-unit cap.
func NewCounters(ioUnitLimit int) *Counters {
	c := &Counters{}
	c.ioUnitLimit.Store(int64(ioUnitLimit))
	return c
}

// AddFSObjects adjusts the live filesystem-object count.
func (c *Counters) AddFSObjects(n int64) int64 { return c.fsObjects.Add(n) }

// AddMetaObjects adjusts the live metadata-object count.
func (c *Counters) AddMetaObjects(n int64) int64 { return c.metaObjects.Add(n) }

// AddIOUnits adjusts the resident cached-I/O-unit count.
func (c *Counters) AddIOUnits(n int64) int64 { return c.ioUnits.Add(n) }

// FSObjects returns the live filesystem-object count.
func (c *Counters) FSObjects() int64 { return c.fsObjects.Load() }

// MetaObjects returns the live metadata-object count.
func (c *Counters) MetaObjects() int64 { return c.metaObjects.Load() }

// IOUnits returns the resident cached-I/O-unit count.
func (c *Counters) IOUnits() int64 { return c.ioUnits.Load() }

// IOUnitLimit returns the current soft cap.
func (c *Counters) IOUnitLimit() int64 { return c.ioUnitLimit.Load() }

// SetIOUnitLimit updates the soft cap at runtime.
func (c *Counters) SetIOUnitLimit(n int64) { c.ioUnitLimit.Store(n) }

// Snapshot returns a read-only copy of all counters.
func (c *Counters) Snapshot() types.RuntimeCounters {
	return types.RuntimeCounters{
		FSObjects:   c.fsObjects.Load(),
		MetaObjects: c.metaObjects.Load(),
		IOUnits:     c.ioUnits.Load(),
		IOUnitLimit: c.ioUnitLimit.Load(),
	}
}
