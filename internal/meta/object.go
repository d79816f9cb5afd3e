package meta

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hivefs/hivefs/pkg/types"
)

// Key addresses one entry of the on-media tree keyspace.
type Key uint64

const (
	// KeyMin and KeyMax span the whole keyspace of one parent.
	KeyMin Key = 0
	KeyMax Key = ^Key(0)

	// SuperRootKey is the fixed well-known key of a device's
	// super-root directory relative to its volume root.
	SuperRootKey Key = 0
)

// Flags carry cache-membership state on a metadata object. The
// external cache flips them; lifecycle bookkeeping observes the
// transitions.
type Flags uint32

const (
	// FlagOnLRU marks the object as linked on its PFS's LRU list.
	FlagOnLRU Flags = 1 << iota

	// FlagRelease marks the object for reclaim on last reference drop.
	FlagRelease
)

// ObjectStats is the summary a root object carries about the subtree
// below it, parsed from its embedded on-media record.
type ObjectStats struct {
	InodeCount uint64
	DataCount  uint64
}

// Identity is the naming information an object carries for PFS
// deduplication: the cluster-wide id plus the on-media entry name and
// declared role.
type Identity struct {
	ClusterID types.ClusterID
	Name      string
	Role      types.Role
}

// Object is one externally owned on-media tree node. The lifecycle
// core manipulates only its reference count, its owning-PFS binding,
// and its LRU-list membership; everything else is read-only here and
// managed by the Store that produced the object.
type Object struct {
	num   uint64
	key   Key
	ident Identity
	stats ObjectStats
	err   error

	mu    sync.RWMutex
	refs  atomic.Int64
	flags atomic.Uint32
	live  atomic.Int64

	ownerMu sync.Mutex
	owner   any

	// lruElem is owned by the PFS LRU bookkeeping and guarded by that
	// PFS's LRU lock, never by the object itself.
	lruElem *list.Element

	release func(*Object)
}

// NewObject constructs an object with one reference held by the
// caller. The release hook, if any, runs when the last reference is
// dropped while FlagRelease is set.
func NewObject(num uint64, key Key, ident Identity, release func(*Object)) *Object {
	o := &Object{
		num:     num,
		key:     key,
		ident:   ident,
		release: release,
	}
	o.refs.Store(1)
	return o
}

// NewRootObject constructs a bootstrap root object for a PFS that has
// no resolved media object yet. It carries the well-known root number
// and one reference.
func NewRootObject(ident Identity) *Object {
	return NewObject(types.RootObjectNumber, KeyMin, ident, nil)
}

// Number returns the object's number within its PFS keyspace.
func (o *Object) Number() uint64 { return o.num }

// Key returns the media key the object was resolved at.
func (o *Object) Key() Key { return o.key }

// Identity returns the object's naming information.
func (o *Object) Identity() Identity { return o.ident }

// Name returns the on-media entry name.
func (o *Object) Name() string { return o.ident.Name }

// Err returns the per-entry error reported by the media lookup that
// produced this object, if any.
func (o *Object) Err() error { return o.err }

// SetErr records a per-entry media error. Store use only.
func (o *Object) SetErr(err error) { o.err = err }

// Stats returns the embedded subtree summary.
func (o *Object) Stats() ObjectStats { return o.stats }

// SetStats records the embedded subtree summary. Store use only.
func (o *Object) SetStats(s ObjectStats) { o.stats = s }

// Ref acquires one reference.
func (o *Object) Ref() {
	o.refs.Add(1)
}

// Drop releases one reference. Dropping the last reference while the
// object is marked for release hands it back to its store.
func (o *Object) Drop() {
	n := o.refs.Add(-1)
	if n < 0 {
		panic(fmt.Sprintf("meta: object %d reference underflow", o.num))
	}
	if n == 0 && o.TestFlags(FlagRelease) && o.release != nil {
		o.release(o)
	}
}

// Refs returns the current reference count.
func (o *Object) Refs() int64 { return o.refs.Load() }

// Lock acquires the object's structural lock exclusively.
func (o *Object) Lock() { o.mu.Lock() }

// Unlock releases the exclusive structural lock.
func (o *Object) Unlock() { o.mu.Unlock() }

// RLock acquires the object's structural lock shared.
func (o *Object) RLock() { o.mu.RLock() }

// RUnlock releases the shared structural lock.
func (o *Object) RUnlock() { o.mu.RUnlock() }

// SetFlags sets the given flag bits.
func (o *Object) SetFlags(f Flags) {
	for {
		old := o.flags.Load()
		if o.flags.CompareAndSwap(old, old|uint32(f)) {
			return
		}
	}
}

// ClearFlags clears the given flag bits.
func (o *Object) ClearFlags(f Flags) {
	for {
		old := o.flags.Load()
		if o.flags.CompareAndSwap(old, old&^uint32(f)) {
			return
		}
	}
}

// TestFlags reports whether all given flag bits are set.
func (o *Object) TestFlags(f Flags) bool {
	return Flags(o.flags.Load())&f == f
}

// AddContent adjusts the live descendant content count. Store use
// only; the lifecycle core consults it during teardown.
func (o *Object) AddContent(n int64) {
	if o.live.Add(n) < 0 {
		panic(fmt.Sprintf("meta: object %d content underflow", o.num))
	}
}

// HasLiveContent reports whether descendant content is still resident
// under this object.
func (o *Object) HasLiveContent() bool { return o.live.Load() > 0 }

// BindOwner binds the object to its owning PFS. An object bound to one
// owner must be cleared before it can be bound to another.
func (o *Object) BindOwner(owner any) {
	o.ownerMu.Lock()
	defer o.ownerMu.Unlock()
	if o.owner != nil && o.owner != owner {
		panic(fmt.Sprintf("meta: object %d rebound without clearing owner", o.num))
	}
	o.owner = owner
}

// ClearOwner removes the owning-PFS binding.
func (o *Object) ClearOwner() {
	o.ownerMu.Lock()
	o.owner = nil
	o.ownerMu.Unlock()
}

// Owner returns the current owning PFS, or nil.
func (o *Object) Owner() any {
	o.ownerMu.Lock()
	defer o.ownerMu.Unlock()
	return o.owner
}

// CacheElem returns the LRU list element recorded for this object.
// Callers must hold the owning PFS's LRU lock.
func (o *Object) CacheElem() *list.Element { return o.lruElem }

// SetCacheElem records the LRU list element for this object. Callers
// must hold the owning PFS's LRU lock.
func (o *Object) SetCacheElem(e *list.Element) { o.lruElem = e }
