package core

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/hivefs/hivefs/internal/meta"
	"github.com/hivefs/hivefs/pkg/types"
)

// Unmount detaches a mount point. Without force the call fails with
// ErrBusy while any resolved object still has external references, and
// no state changes. With force those references are revoked and the
// detach proceeds; previously returned objects become invalid.
//
// Detaching the last mount on a device tears the device down, which in
// turn can strip replicas from other instances and cascade. After the
// last device closes the runtime counters must read zero.
func (r *Registry) Unmount(mp *MountPoint, force bool) error {
	if mp == nil {
		return fmt.Errorf("%w: nil mount point", types.ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pmp := mp.pfs
	if pmp == nil || pmp.mount != mp {
		return fmt.Errorf("%w: mount point not attached", types.ErrInvalidArgument)
	}

	if err := r.flushObjects(pmp, force); err != nil {
		return err
	}
	return r.unmountHelper(pmp)
}

// flushObjects empties the per-PFS working state ahead of a detach:
// the LRU leases first, then the resolved-object index. At rest an
// indexed object carries two references, its store's and the index's
// own, and a replica root carries its store's and its slot's; anything
// beyond that is an outstanding caller handle. Without force the first
// such handle aborts the flush before anything is dropped; with force
// the handles are revoked and the flush proceeds.
func (r *Registry) flushObjects(pmp *PFS, force bool) error {
	pmp.drainLRU()

	pmp.mu.Lock()
	if !force {
		for _, obj := range pmp.objects {
			if obj.Refs() > 2 {
				num := obj.Number()
				pmp.mu.Unlock()
				return fmt.Errorf("%w: object %d still referenced", types.ErrBusy, num)
			}
		}
		for i := range pmp.slots {
			if obj := pmp.slots[i].obj; obj != nil && obj.Refs() > 2 {
				num := obj.Number()
				pmp.mu.Unlock()
				return fmt.Errorf("%w: replica root %d still referenced", types.ErrBusy, num)
			}
		}
	}
	objects := pmp.objects
	pmp.objects = make(map[uint64]*meta.Object)
	if force {
		for i := range pmp.slots {
			if obj := pmp.slots[i].obj; obj != nil {
				// Revoke caller handles on replica roots; the slot and
				// store references stay.
				for obj.Refs() > 2 {
					obj.Drop()
				}
			}
		}
	}
	pmp.mu.Unlock()

	for _, obj := range objects {
		obj.ClearOwner()
		obj.SetFlags(meta.FlagRelease)
		// The index hold plus, under force, any revoked caller handles.
		for obj.Refs() > 1 {
			obj.Drop()
		}
		r.counters.AddFSObjects(-1)
	}
	return nil
}

// unmountHelper detaches the PFS from its mount point, drops the
// dependent-mount count on every backing device, and tears down
// devices that reach zero. Teardown can strip replicas from other
// instances and zero further devices, so the pass repeats until a full
// sweep changes nothing.
func (r *Registry) unmountHelper(pmp *PFS) error {
	pmp.mu.Lock()
	pmp.mount = nil
	for i := range pmp.slots {
		if pmp.slots[i].obj != nil {
			dev := pmp.slots[i].dev
			invariantf(dev.mountCount > 0, "device %s mount count underflow", dev.set.FromName())
			dev.mountCount--
		}
	}
	pmp.mu.Unlock()

	var merr *multierror.Error
	for {
		var idle *Device
		for _, d := range r.devices {
			if d.mountCount == 0 {
				idle = d
				break
			}
		}
		if idle == nil {
			break
		}
		if err := r.deviceTeardown(idle); err != nil {
			merr = multierror.Append(merr, err)
		}
	}

	if len(r.devices) == 0 {
		if err := r.assertClean(); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

// deviceTeardown closes one device: strip its replica bindings from
// both PFS tables, destroy instances left empty, drain the I/O cache
// and close the media store and volume set. A device that regained a
// dependent mount since the decision declines quietly.
//
// The registry lock is held exclusively.
func (r *Registry) deviceTeardown(dev *Device) error {
	if dev.mountCount > 0 {
		r.log.Debug("device teardown skipped, still mounted",
			"device", dev.set.FromName(), "mount_count", dev.mountCount)
		return nil
	}

	var merr *multierror.Error
	if err := r.pfsFreeScan(dev, false); err != nil {
		merr = multierror.Append(merr, err)
	}
	if err := r.pfsFreeScan(dev, true); err != nil {
		merr = multierror.Append(merr, err)
	}
	invariantf(dev.spmp == nil, "device %s super-root survived teardown", dev.set.FromName())

	if leaked := dev.io.drain(); leaked > 0 {
		r.log.Warn("cached I/O units leaked at device close",
			"device", dev.set.FromName(), "units", leaked)
		merr = multierror.Append(merr,
			fmt.Errorf("%w: %d cached I/O units leaked", types.ErrInconsistent, leaked))
	}

	from := dev.set.FromName()
	if err := dev.store.Close(); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("closing media store: %w", err))
	}
	if err := dev.set.Close(); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("closing volume set: %w", err))
	}
	dev.volRoot = nil

	r.devices = removeDevice(r.devices, dev)
	r.log.Info("device closed", "device", from, "devices_open", len(r.devices))
	return merr.ErrorOrNil()
}
