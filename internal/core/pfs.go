package core

import (
	"container/list"
	"sync"

	"github.com/hivefs/hivefs/internal/meta"
	"github.com/hivefs/hivefs/pkg/types"
)

// replica binds one metadata-object reference to one device and role
// within a PFS. A zero replica is a free slot.
type replica struct {
	obj  *meta.Object
	dev  *Device
	role types.Role
	name string
}

func (s *replica) empty() bool {
	return s.obj == nil && s.dev == nil && s.role == types.RoleNone && s.name == ""
}

// PFS is one logical filesystem instance. Ordinary instances are
// cluster-addressable and live on the cluster list; each device also
// owns one super-root PFS that is meta-only and lives on the
// super-root list.
type PFS struct {
	clusterID  types.ClusterID
	forceLocal *Device // non-nil when every replica is treated as local primary
	superRoot  bool
	spec       string

	// mu is the structural lock: root object binding, replica slots,
	// the resolved-object index, mount back-reference and export
	// table. It must not be held while re-entering the allocator for a
	// different PFS.
	mu      sync.Mutex
	root    *meta.Object
	slots   [types.MaxCluster]replica
	nslots  int
	focus   *meta.Object
	objects map[uint64]*meta.Object

	// lruMu guards only LRU linkage and is ordered below everything
	// else; release it before dropping references gathered while
	// draining.
	lruMu    sync.Mutex
	lru      *list.List
	lruCount int

	mount   *MountPoint
	exports exportTable
	dead    bool
}

func newPFS() *PFS {
	return &PFS{
		objects: make(map[uint64]*meta.Object),
		lru:     list.New(),
	}
}

// recomputeSlots re-derives the logical replica count: the highest
// occupied slot index plus one. Gaps between bound slots are
// tolerated; only trailing empties are trimmed.
func (p *PFS) recomputeSlots() {
	n := 0
	for i := range p.slots {
		if !p.slots[i].empty() {
			n = i + 1
		}
	}
	p.nslots = n
}

// firstFreeSlot returns the lowest empty slot index, or MaxCluster.
func (p *PFS) firstFreeSlot() int {
	for i := range p.slots {
		if p.slots[i].empty() {
			return i
		}
	}
	return types.MaxCluster
}

// focusObj returns the first bound replica object, the preferred
// replica for lookups and statistics. Callers hold p.mu.
func (p *PFS) focusObj() *meta.Object {
	if p.focus != nil {
		return p.focus
	}
	for i := range p.slots {
		if p.slots[i].obj != nil {
			p.focus = p.slots[i].obj
			return p.focus
		}
	}
	return nil
}

// name returns a human-readable identity for log messages. Callers
// hold p.mu or know the PFS is quiescent.
func (p *PFS) name() string {
	if p.spec != "" {
		return p.spec
	}
	for i := range p.slots {
		if p.slots[i].name != "" {
			return p.slots[i].name
		}
	}
	if p.superRoot {
		return "<super-root>"
	}
	return p.clusterID.String()
}
