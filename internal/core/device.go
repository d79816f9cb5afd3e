package core

import (
	"github.com/hivefs/hivefs/internal/meta"
	"github.com/hivefs/hivefs/internal/volume"
)

// Device is the in-memory state of one opened backing store, possibly
// spanning multiple volumes. It is created on the first reference to
// unopened media and destroyed when its dependent-mount count reaches
// zero and no PFS anywhere still references it.
type Device struct {
	set   *volume.Set
	store meta.Store

	// volRoot is the embedded volume-root metadata object; the device
	// references it permanently through the store's lifetime.
	volRoot *meta.Object

	// mountCount counts attached mounts whose PFS has at least one
	// replica bound to this device. Guarded by the registry lock.
	mountCount int

	io   *ioCache
	spmp *PFS
}

// Header returns the authoritative (volume zero) header.
func (d *Device) Header() *volume.Header { return d.set.Root() }

// TotalSize returns the aggregate media size, version-gated.
func (d *Device) TotalSize() uint64 { return d.set.TotalSize() }

// NumVolumes returns the number of volumes composing the device.
func (d *Device) NumVolumes() int { return d.set.Len() }

// handleIDs returns the raw media identities of the device's volumes.
func (d *Device) handleIDs() map[uint64]bool {
	ids := make(map[uint64]bool)
	for _, h := range d.set.Handles() {
		ids[h.DeviceID()] = true
	}
	return ids
}

// CacheIOInsert records a resident cached I/O unit for this device.
// Called by the external cache when a unit becomes resident.
func (d *Device) CacheIOInsert(off uint64) bool { return d.io.insert(off) }

// CacheIORemove drops a resident cached I/O unit.
func (d *Device) CacheIORemove(off uint64) bool { return d.io.remove(off) }

// CachedIOUnits returns this device's resident unit count.
func (d *Device) CachedIOUnits() int { return d.io.len() }
