package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/hivefs/hivefs/internal/meta"
	"github.com/hivefs/hivefs/internal/volume"
	"github.com/hivefs/hivefs/pkg/types"
)

// MountRequest describes one mount attempt.
type MountRequest struct {
	// Spec is "vol[:vol...][@LABEL]" or "@LABEL". With no label the
	// configured default label is mounted; with no volumes the device
	// is resolved through an existing replica binding of the label.
	Spec string

	// Path is the mount-point path recorded for statistics.
	Path string

	// ReadOnly must be set; writable mounts are not supported.
	ReadOnly bool

	// Force is accepted for spec symmetry with Unmount; it has no
	// effect on mounting.
	Force bool
}

// Mount runs the end-to-end sequence from device spec plus label to an
// attached mount: resolve or open the device, bootstrap its super-root,
// resolve the label beneath it, bind the PFS and attach. Any step
// failure unwinds fully; no half-registered device or PFS stays
// reachable.
func (r *Registry) Mount(ctx context.Context, req MountRequest) (*MountPoint, error) {
	if !req.ReadOnly {
		return nil, fmt.Errorf("%w: write mounts unsupported", types.ErrInvalidArgument)
	}
	paths, label, err := r.parseSpec(req.Spec)
	if err != nil {
		return nil, err
	}

	// Open the volume handles before taking the registry lock; opening
	// can block on slow media.
	var handles []volume.Handle
	if len(paths) > 0 {
		handles, err = volume.Open(ctx, paths, r.handleOpener)
		if err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var dev *Device
	if len(handles) > 0 {
		dev, err = r.deviceByHandles(handles)
		if err != nil {
			closeHandles(handles)
			return nil, err
		}
	} else {
		// Label-only mount: some label from the wanted device must
		// already be probed.
		if dev = r.deviceByLabel(label); dev == nil {
			return nil, fmt.Errorf("%w: label %q not bound on any open device", types.ErrNotFound, label)
		}
	}

	if dev == nil {
		dev, err = r.deviceCreate(handles)
		if err != nil {
			return nil, err
		}
	} else if len(handles) > 0 {
		// Device already open under this composition; the probe
		// handles are redundant.
		closeHandles(handles)
	}

	// Resolve the label under the super-root.
	obj, err := r.lookupLabel(dev, label)
	if err != nil {
		r.unwindMount(dev)
		return nil, err
	}
	ident := obj.Identity()
	obj.Drop()

	// Bind under forced-local context: every replica of a locally
	// mounted device is treated as primary.
	pmp := r.pfsAlloc(nil, &ident, dev, true)

	if pmp.mount != nil {
		r.unwindMount(dev)
		return nil, fmt.Errorf("%w: label %q already mounted", types.ErrAlreadyInUse, label)
	}

	mp := r.mountHelper(pmp, dev, req.Path, strings.Join(paths, ":"), label)
	r.log.Info("mounted", "spec", mp.Spec, "path", req.Path, "mount_count", dev.mountCount)
	return mp, nil
}

// parseSpec splits a device spec into volume paths and a label.
func (r *Registry) parseSpec(spec string) ([]string, string, error) {
	if spec == "" {
		return nil, "", fmt.Errorf("%w: empty device spec", types.ErrInvalidArgument)
	}
	devs, label, found := strings.Cut(spec, "@")
	if !found || label == "" {
		label = r.cfg.Mount.DefaultLabel
	}
	if uint32(len(label)) > r.cfg.Mount.NameMax || strings.ContainsRune(label, '/') {
		return nil, "", fmt.Errorf("%w: bad label %q", types.ErrInvalidArgument, label)
	}
	var paths []string
	for _, p := range strings.Split(devs, ":") {
		if p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 && devs != "" {
		return nil, "", fmt.Errorf("%w: bad device spec %q", types.ErrInvalidArgument, spec)
	}
	if len(paths) == 0 && !found {
		return nil, "", fmt.Errorf("%w: neither device nor label in %q", types.ErrInvalidArgument, spec)
	}
	if len(paths) > types.MaxCluster {
		return nil, "", fmt.Errorf("%w: %d volumes in spec, limit %d",
			types.ErrResourceExhausted, len(paths), types.MaxCluster)
	}
	return paths, label, nil
}

// deviceCreate opens a fresh device: assemble and validate the volume
// set, open its media store, register the device, bootstrap its
// super-root PFS from the well-known key, and pre-populate the PFS
// table with every label found beneath the super-root.
func (r *Registry) deviceCreate(handles []volume.Handle) (*Device, error) {
	set, err := volume.Assemble(handles)
	if err != nil {
		closeHandles(handles)
		return nil, err
	}
	store, err := r.storeOpener(set)
	if err != nil {
		set.Close()
		return nil, fmt.Errorf("opening media store: %w", err)
	}

	dev := &Device{
		set:     set,
		store:   store,
		volRoot: store.VolumeRoot(),
		io:      newIOCache(r.counters),
	}
	r.devices = append(r.devices, dev)

	// The super-root PFS and the device are created together; slot
	// zero records the device binding that ties their lifetimes.
	spmp := r.pfsAlloc(nil, nil, dev, false)
	dev.spmp = spmp
	spmp.mu.Lock()
	spmp.slots[0] = replica{dev: dev, role: types.RoleSupRoot}
	spmp.recomputeSlots()
	spmp.mu.Unlock()

	// Locate the on-media super-root at its fixed key.
	sroot, err := store.Lookup(dev.volRoot, meta.SuperRootKey)
	if err != nil || sroot == nil {
		r.unwindMount(dev)
		if err != nil {
			return nil, fmt.Errorf("%w: reading super-root: %v", types.ErrMediaError, err)
		}
		return nil, fmt.Errorf("%w: no super-root on %s", types.ErrMediaError, set.FromName())
	}
	if serr := sroot.Err(); serr != nil {
		sroot.Drop()
		r.unwindMount(dev)
		return nil, fmt.Errorf("%w: super-root: %v", types.ErrMediaError, serr)
	}

	// Replace the bootstrap root with the real one wholesale; fixing
	// up the placeholder in place is not worth it.
	spmp.mu.Lock()
	old := spmp.root
	spmp.root = sroot
	spmp.clusterID = sroot.Identity().ClusterID
	spmp.mu.Unlock()
	old.SetFlags(meta.FlagRelease)
	old.Drop()

	r.updatePFSList(dev)
	r.log.Debug("device opened",
		"from", set.FromName(), "volumes", set.Len(), "total_size", set.TotalSize())
	return dev, nil
}

// updatePFSList scans every label under the device's super-root and
// allocates (or extends) a PFS per label, pre-populating the cluster
// table.
func (r *Registry) updatePFSList(dev *Device) {
	entries, err := dev.store.Range(dev.spmp.root, meta.KeyMin, meta.KeyMax)
	if err != nil {
		r.log.Warn("scanning super-root", "device", dev.set.FromName(), "error", err)
		return
	}
	for _, obj := range entries {
		if oerr := obj.Err(); oerr != nil {
			r.log.Warn("skipping corrupt label entry", "name", obj.Name(), "error", oerr)
			obj.Drop()
			continue
		}
		ident := obj.Identity()
		r.pfsAlloc(obj, &ident, dev, true)
		obj.Drop()
	}
}

// lookupLabel resolves a label beneath the device's super-root by its
// hash-keyed range, confirming by literal name comparison since
// distinct labels can share a hash window.
func (r *Registry) lookupLabel(dev *Device, label string) (*meta.Object, error) {
	spmp := dev.spmp
	lhc := meta.DirHash(label)

	spmp.root.RLock()
	entries, err := dev.store.Range(spmp.root, lhc, lhc|meta.DirHashLoMask)
	spmp.root.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("%w: label %q lookup: %v", types.ErrMediaError, label, err)
	}

	var match *meta.Object
	var entryErr error
	for _, obj := range entries {
		if match == nil && obj.Name() == label {
			if oerr := obj.Err(); oerr != nil {
				entryErr = oerr
				obj.Drop()
				continue
			}
			match = obj
			continue
		}
		obj.Drop()
	}
	if match == nil {
		if entryErr != nil {
			return nil, fmt.Errorf("%w: label %q: %v", types.ErrMediaError, label, entryErr)
		}
		return nil, fmt.Errorf("%w: label %q", types.ErrNotFound, label)
	}
	return match, nil
}

// mountHelper attaches the PFS to its mount point and accounts the
// dependent-mount count on every backing device.
func (r *Registry) mountHelper(pmp *PFS, dev *Device, path, devstr, label string) *MountPoint {
	mp := &MountPoint{r: r, pfs: pmp, path: path}

	pmp.mu.Lock()
	pmp.mount = mp
	if devstr == "" {
		devstr = dev.set.FromName()
	}
	pmp.spec = devstr + "@" + label
	for i := range pmp.slots {
		if pmp.slots[i].obj != nil {
			pmp.slots[i].dev.mountCount++
		}
	}
	pmp.mu.Unlock()

	mp.stats = r.statsLocked(pmp, dev, label)
	return mp
}

// statsLocked assembles the externally visible statistics of an
// attached mount. Registry lock held.
func (r *Registry) statsLocked(pmp *PFS, dev *Device, label string) types.MountStats {
	hdr := dev.Header()
	bs := uint64(hdr.BlockSize)

	var inodes uint64
	pmp.mu.Lock()
	if obj := pmp.focusObj(); obj != nil {
		inodes = obj.Stats().InodeCount
	}
	spec := pmp.spec
	var onName string
	if pmp.mount != nil {
		onName = pmp.mount.path
	}
	pmp.mu.Unlock()

	return types.MountStats{
		BlockSize:   hdr.BlockSize,
		Blocks:      hdr.AllocatorSize / bs,
		BlocksFree:  hdr.AllocatorFree / bs,
		BlocksAvail: hdr.AllocatorFree / bs,
		Inodes:      inodes,
		NameMax:     r.cfg.Mount.NameMax,
		FSID:        dev.set.Handles()[0].DeviceID() ^ uint64(pmp.clusterID.Low()),
		FromName:    dev.set.FromName() + "@" + label,
		FromSpec:    spec,
		OnName:      onName,
	}
}

// unwindMount rolls a failed mount step back: tear the device down if
// nothing else depends on it yet. A device still carrying attached
// mounts refuses teardown, which is exactly the rollback wanted for a
// reused device.
func (r *Registry) unwindMount(dev *Device) {
	if err := r.deviceTeardown(dev); err != nil {
		r.log.Warn("rollback teardown", "device", dev.set.FromName(), "error", err)
	}
}

func closeHandles(handles []volume.Handle) {
	for _, h := range handles {
		h.Close()
	}
}
