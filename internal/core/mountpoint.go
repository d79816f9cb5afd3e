package core

import (
	"fmt"

	"github.com/hivefs/hivefs/internal/meta"
	"github.com/hivefs/hivefs/pkg/types"
)

// MountPoint is one attachment of a PFS. It is the consumer-facing
// surface: object resolution, file handles, export control and cached
// statistics all hang off it. Valid until Unmount detaches it.
type MountPoint struct {
	r    *Registry
	pfs  *PFS
	path string

	stats types.MountStats
}

// Path returns the attachment path.
func (mp *MountPoint) Path() string { return mp.path }

// Spec returns the canonical "devices@LABEL" string of the mount.
func (mp *MountPoint) Spec() string {
	mp.pfs.mu.Lock()
	defer mp.pfs.mu.Unlock()
	return mp.pfs.spec
}

// Device returns the backing device of the focus replica, or nil when
// the instance has lost all replicas.
func (mp *MountPoint) Device() *Device {
	mp.pfs.mu.Lock()
	defer mp.pfs.mu.Unlock()
	for i := range mp.pfs.slots {
		if !mp.pfs.slots[i].empty() {
			return mp.pfs.slots[i].dev
		}
	}
	return nil
}

// Stats returns statistics captured at mount time with the volatile
// fields (free space, inode count) refreshed from the current focus.
func (mp *MountPoint) Stats() types.MountStats {
	st := mp.stats

	mp.pfs.mu.Lock()
	obj := mp.pfs.focusObj()
	var dev *Device
	for i := range mp.pfs.slots {
		if !mp.pfs.slots[i].empty() {
			dev = mp.pfs.slots[i].dev
			break
		}
	}
	if obj != nil {
		st.Inodes = obj.Stats().InodeCount
	}
	mp.pfs.mu.Unlock()

	if dev != nil {
		hdr := dev.Header()
		bs := uint64(hdr.BlockSize)
		st.BlocksFree = hdr.AllocatorFree / bs
		st.BlocksAvail = hdr.AllocatorFree / bs
	}
	return st
}

// RootObject returns the root metadata object of the mounted instance
// with a reference held for the caller.
func (mp *MountPoint) RootObject() (*meta.Object, error) {
	return mp.LookupObject(types.RootObjectNumber)
}

// LookupObject resolves an object by number within the mounted
// instance, consulting the resolved-object index before the media
// store. The returned object carries a reference the caller owns.
func (mp *MountPoint) LookupObject(num uint64) (*meta.Object, error) {
	num &= types.UserKeyMask

	pmp := mp.pfs
	pmp.mu.Lock()
	if pmp.mount != mp {
		pmp.mu.Unlock()
		return nil, fmt.Errorf("%w: mount point detached", types.ErrInvalidArgument)
	}
	if obj, ok := pmp.objects[num]; ok {
		obj.Ref()
		pmp.mu.Unlock()
		return obj, nil
	}
	focus := pmp.focusObj()
	var dev *Device
	for i := range pmp.slots {
		if !pmp.slots[i].empty() {
			dev = pmp.slots[i].dev
			break
		}
	}
	pmp.mu.Unlock()

	if focus == nil || dev == nil {
		return nil, fmt.Errorf("%w: instance has no replicas", types.ErrInconsistent)
	}

	obj, err := dev.store.LookupNumber(focus, num)
	if err != nil {
		return nil, fmt.Errorf("%w: object %d: %v", types.ErrMediaError, num, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: object %d", types.ErrNotFound, num)
	}

	// Replica roots come back already bound to their slot; the slot
	// reference keeps them alive, so the store's reference transfers to
	// the caller without an index entry.
	if obj.Owner() != nil {
		return obj, nil
	}

	pmp.mu.Lock()
	if prior, ok := pmp.objects[num]; ok {
		// Lost the race; keep the first resolution.
		prior.Ref()
		pmp.mu.Unlock()
		obj.Drop()
		return prior, nil
	}
	obj.BindOwner(pmp)
	pmp.objects[num] = obj
	pmp.mu.Unlock()
	mp.r.counters.AddFSObjects(1)

	obj.Ref()
	return obj, nil
}

// FileHandle encodes a stable handle for an object of this mount.
func (mp *MountPoint) FileHandle(obj *meta.Object) (types.FileHandle, error) {
	if obj == nil {
		return types.FileHandle{}, fmt.Errorf("%w: nil object", types.ErrInvalidArgument)
	}
	return types.FileHandle{ObjectNumber: obj.Number() & types.UserKeyMask}, nil
}

// ResolveFileHandle turns a previously issued handle back into a
// referenced object.
func (mp *MountPoint) ResolveFileHandle(fh types.FileHandle) (*meta.Object, error) {
	return mp.LookupObject(fh.ObjectNumber)
}

// SetExports replaces the mount's export table.
func (mp *MountPoint) SetExports(specs []ExportSpec) {
	mp.pfs.mu.Lock()
	mp.pfs.exports = append([]ExportSpec(nil), specs...)
	mp.pfs.mu.Unlock()
}

// CacheInsert places an object on the instance's retention list.
func (mp *MountPoint) CacheInsert(obj *meta.Object) bool {
	return mp.pfs.CacheInsert(obj)
}

// CacheRemove takes an object off the retention list.
func (mp *MountPoint) CacheRemove(obj *meta.Object) bool {
	return mp.pfs.CacheRemove(obj)
}

// CachedObjects returns the retention list length.
func (mp *MountPoint) CachedObjects() int {
	return mp.pfs.CachedObjects()
}
