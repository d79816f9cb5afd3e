package core

import (
	"github.com/hivefs/hivefs/internal/meta"
	"github.com/hivefs/hivefs/pkg/types"
)

// pfsAlloc finds or creates the PFS for an identity, optionally
// binding a resolved metadata object into its next replica slot.
//
// With no identity the call always creates: that is the once-per-device
// super-root allocation. With an identity, cluster mode dedups on the
// full cluster id among entries with no forced device, while
// forced-local mode dedups on the slot-zero name among entries bound
// to the same device.
//
// The registry lock is held exclusively by the caller.
func (r *Registry) pfsAlloc(bind *meta.Object, ident *meta.Identity, dev *Device, forceLocal bool) *PFS {
	var pmp *PFS

	if ident != nil {
		for _, p := range r.pfsList {
			if forceLocal {
				if p.forceLocal == dev && p.slots[0].name == ident.Name {
					pmp = p
					break
				}
			} else {
				if p.forceLocal == nil && p.clusterID == ident.ClusterID {
					pmp = p
					break
				}
			}
		}
	}

	if pmp == nil {
		pmp = newPFS()
		if ident != nil {
			pmp.clusterID = ident.ClusterID
			if forceLocal {
				pmp.forceLocal = dev
			}
			r.pfsList = append(r.pfsList, pmp)
		} else {
			pmp.superRoot = true
			r.spList = append(r.spList, pmp)
		}
		r.log.Debug("allocated PFS",
			"name", pmp.name(), "super_root", pmp.superRoot, "force_local", forceLocal)
	}

	// Bootstrap the root object if absent. The PFS holds one
	// persistent reference for its lifetime.
	if pmp.root == nil {
		var rootIdent meta.Identity
		if ident != nil {
			rootIdent = *ident
		}
		pmp.root = meta.NewRootObject(rootIdent)
		r.counters.AddFSObjects(1)
	}

	if bind == nil {
		return pmp
	}

	pmp.mu.Lock()
	j := pmp.firstFreeSlot()
	invariantf(j < types.MaxCluster, "PFS %s replica slots exhausted", pmp.name())
	invariantf(pmp.slots[j].empty(), "PFS %s slot %d not free", pmp.name(), j)
	invariantf(bind.Owner() == nil || bind.Owner() == pmp,
		"object %d already owned elsewhere", bind.Number())

	bind.BindOwner(pmp)
	bind.Ref()
	role := ident.Role
	if forceLocal {
		// Local mode disassociates replicas from their cluster; every
		// replica is a primary here regardless of its declared role.
		role = types.RoleMaster
	}
	pmp.slots[j] = replica{
		obj:  bind,
		dev:  dev,
		role: role,
		name: ident.Name,
	}

	// A PFS already attached to a mount point gains a dependent mount
	// on the bound device right away.
	if pmp.mount != nil {
		dev.mountCount++
	}
	pmp.recomputeSlots()
	pmp.mu.Unlock()

	return pmp
}
