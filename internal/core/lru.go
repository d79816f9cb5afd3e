package core

import (
	"github.com/hivefs/hivefs/internal/meta"
)

// Object cache bookkeeping. Each PFS owns one LRU list of evictable
// cached metadata objects under a lock distinct from its structural
// lock. The external cache decides membership and signals it here;
// the core only maintains linkage, counts, and the reference each
// linked entry contributes.

// CacheInsert links an object at the LRU tail. Membership holds one
// reference. Returns false if the object is already linked.
func (p *PFS) CacheInsert(obj *meta.Object) bool {
	p.lruMu.Lock()
	defer p.lruMu.Unlock()
	if obj.TestFlags(meta.FlagOnLRU) {
		invariantf(obj.CacheElem() != nil, "object %d flagged on LRU without linkage", obj.Number())
		return false
	}
	obj.Ref()
	obj.SetFlags(meta.FlagOnLRU)
	obj.SetCacheElem(p.lru.PushBack(obj))
	p.lruCount++
	return true
}

// CacheRemove unlinks an object from the LRU list and drops the
// membership reference. Returns false if the object was not linked.
func (p *PFS) CacheRemove(obj *meta.Object) bool {
	p.lruMu.Lock()
	if !obj.TestFlags(meta.FlagOnLRU) {
		p.lruMu.Unlock()
		return false
	}
	elem := obj.CacheElem()
	invariantf(elem != nil, "object %d flagged on LRU without linkage", obj.Number())
	p.lru.Remove(elem)
	obj.SetCacheElem(nil)
	obj.ClearFlags(meta.FlagOnLRU)
	p.lruCount--
	p.lruMu.Unlock()

	// Drop outside the LRU lock; the drop may take other locks.
	obj.Drop()
	return true
}

// CachedObjects returns the number of objects currently linked.
func (p *PFS) CachedObjects() int {
	p.lruMu.Lock()
	defer p.lruMu.Unlock()
	return p.lruCount
}

// drainLRU detaches every entry during teardown. Each entry is marked
// for release and its membership reference dropped after the LRU lock
// is released, so a release that needs other locks cannot invert
// against a concurrent insert.
func (p *PFS) drainLRU() {
	p.lruMu.Lock()
	for {
		front := p.lru.Front()
		if front == nil {
			break
		}
		obj := front.Value.(*meta.Object)
		invariantf(obj.TestFlags(meta.FlagOnLRU), "object %d on LRU list without flag", obj.Number())
		p.lru.Remove(front)
		obj.SetCacheElem(nil)
		obj.ClearFlags(meta.FlagOnLRU)
		p.lruCount--
		p.lruMu.Unlock()

		obj.SetFlags(meta.FlagRelease)
		obj.Drop()

		p.lruMu.Lock()
	}
	p.lruMu.Unlock()
}
