package core

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/hivefs/hivefs/internal/meta"
	"github.com/hivefs/hivefs/pkg/types"
)

// pfsFree destroys a PFS once its last replica is gone: unlink from
// its table, drain the LRU list, then release the root and remaining
// resources. If a replica still references an object with live
// descendant content the teardown is deferred — the unlink and drain
// stand, ancillary resources are kept, and the condition is reported
// as ErrInconsistent instead of being silently logged away.
//
// The registry lock is held exclusively; no lock may be held on the
// PFS's root object.
func (r *Registry) pfsFree(pmp *PFS) error {
	invariantf(!pmp.dead, "PFS %s freed twice", pmp.name())

	if pmp.superRoot {
		r.spList = removePFS(r.spList, pmp)
	} else {
		r.pfsList = removePFS(r.pfsList, pmp)
	}

	pmp.drainLRU()

	pmp.mu.Lock()
	lingering := false
	for i := range pmp.slots {
		if obj := pmp.slots[i].obj; obj != nil && obj.HasLiveContent() {
			lingering = true
		}
	}
	if lingering {
		name := pmp.name()
		pmp.mu.Unlock()
		r.log.Warn("PFS still in use, deferring teardown", "pfs", name)
		return fmt.Errorf("%w: PFS %s has live content", types.ErrInconsistent, name)
	}

	// Release any replica references that survived to this point
	// (direct teardown; the device scan clears its own beforehand).
	for i := range pmp.slots {
		if obj := pmp.slots[i].obj; obj != nil {
			if pmp.focus == obj {
				pmp.focus = nil
			}
			obj.ClearOwner()
			obj.SetFlags(meta.FlagRelease)
			obj.Drop()
		}
		pmp.slots[i] = replica{}
	}
	pmp.nslots = 0

	root := pmp.root
	pmp.root = nil
	objects := pmp.objects
	pmp.objects = nil
	pmp.spec = ""
	pmp.dead = true
	pmp.mu.Unlock()

	if root != nil {
		root.SetFlags(meta.FlagRelease)
		root.Drop()
		r.counters.AddFSObjects(-1)
	}
	for _, obj := range objects {
		obj.ClearOwner()
		obj.SetFlags(meta.FlagRelease)
		obj.Drop()
		r.counters.AddFSObjects(-1)
	}
	return nil
}

// pfsFreeScan strips every replica reference to a dying device from
// one PFS table, then destroys instances left with no replicas. The
// scan is two-phase — collect while iterating, destroy afterwards —
// so the table never mutates under its own cursor.
//
// Invoked once per table (cluster, super-root) during any device
// teardown. The registry lock is held exclusively.
func (r *Registry) pfsFreeScan(dev *Device, superRoot bool) error {
	table := r.pfsList
	if superRoot {
		table = r.spList
	}

	var merr *multierror.Error
	var doomed []*PFS
	for _, pmp := range table {
		if pmp.root == nil {
			continue
		}
		pmp.mu.Lock()
		lingering := false
		for i := range pmp.slots {
			if s := &pmp.slots[i]; s.dev == dev && s.obj != nil && s.obj.HasLiveContent() {
				lingering = true
			}
		}
		if lingering {
			// Content is still resident below a replica on the dying
			// device. Keep the binding so the leak stays visible and
			// report the deferred teardown instead of forcing it.
			name := pmp.name()
			pmp.mu.Unlock()
			r.log.Warn("PFS still in use, deferring teardown", "pfs", name)
			merr = multierror.Append(merr,
				fmt.Errorf("%w: PFS %s has live content", types.ErrInconsistent, name))
			continue
		}
		touched := false
		for i := range pmp.slots {
			s := &pmp.slots[i]
			if s.dev != dev {
				continue
			}
			touched = true
			if s.obj != nil {
				if pmp.focus == s.obj {
					pmp.focus = nil
				}
				s.obj.ClearOwner()
				s.obj.SetFlags(meta.FlagRelease)
				s.obj.Drop()
			}
			*s = replica{}
		}
		if touched {
			pmp.recomputeSlots()
		}
		empty := touched && pmp.nslots == 0
		pmp.mu.Unlock()
		if empty {
			doomed = append(doomed, pmp)
		}
	}

	for _, pmp := range doomed {
		if dev.spmp == pmp {
			dev.spmp = nil
		}
		if err := r.pfsFree(pmp); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}
