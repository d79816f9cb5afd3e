// Package metatest provides an in-memory media store for exercising
// the lifecycle core without real volumes. Images describe the labels
// visible under a device's super-root; the store serves lookups over
// them with real reference counting so leak checks stay meaningful.
package metatest

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/hivefs/hivefs/internal/meta"
	"github.com/hivefs/hivefs/internal/volume"
	"github.com/hivefs/hivefs/pkg/types"
)

// Label describes one filesystem instance on an image.
type Label struct {
	Name      string
	ClusterID types.ClusterID
	Role      types.Role

	// Err marks the label's entry as corrupt: lookups resolve it but
	// carry a per-entry media error.
	Err error

	// Content preloads live descendant content on the label's root,
	// making its PFS report lingering state if reaped while set.
	Content int64

	// Files lists extra object numbers resolvable below the root.
	Files []uint64

	// CollideWith forces this label into another name's hash window
	// to exercise collision resolution.
	CollideWith string
}

// Image is the media content of one backing store.
type Image struct {
	Labels []Label
}

// CID builds a deterministic cluster id for tests.
func CID(b byte) types.ClusterID {
	var id types.ClusterID
	for i := range id {
		id[i] = b
	}
	return id
}

// Opener maps volume-set filesystem ids to images and opens stores
// over them, wiring every object allocation through an optional
// counter hook.
type Opener struct {
	mu     sync.Mutex
	images map[types.ClusterID]*Image

	// Hook observes object allocation (+1) and release (-1).
	Hook func(delta int64)
}

// NewOpener returns an empty opener.
func NewOpener(hook func(int64)) *Opener {
	return &Opener{
		images: make(map[types.ClusterID]*Image),
		Hook:   hook,
	}
}

// AddImage registers the image served for a volume set's fsid.
func (o *Opener) AddImage(fsid types.ClusterID, img *Image) {
	o.mu.Lock()
	o.images[fsid] = img
	o.mu.Unlock()
}

// Open is the store factory handed to the registry.
func (o *Opener) Open(set *volume.Set) (meta.Store, error) {
	o.mu.Lock()
	img, ok := o.images[set.Root().FSID]
	o.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: no image for fsid %s", types.ErrMediaError, set.Root().FSID)
	}
	return openStore(img, o.Hook)
}

type entry struct {
	key   meta.Key
	obj   *meta.Object
	files map[uint64]*meta.Object
}

// Store is one opened in-memory media store.
type Store struct {
	mu      sync.Mutex
	hook    func(int64)
	volRoot *meta.Object
	sroot   *meta.Object
	entries []*entry
	closed  bool
	allocs  atomic.Int64
}

// OpenStore opens a store directly over an image, outside any opener.
func OpenStore(img *Image, hook func(int64)) (*Store, error) {
	return openStore(img, hook)
}

func openStore(img *Image, hook func(int64)) (*Store, error) {
	if hook == nil {
		hook = func(int64) {}
	}
	s := &Store{hook: hook}

	s.volRoot = s.newObject(2, meta.KeyMin, meta.Identity{Name: "<volume-root>"})
	s.sroot = s.newObject(types.RootObjectNumber, meta.SuperRootKey, meta.Identity{
		Name: "<super-root>",
		Role: types.RoleSupRoot,
	})
	s.sroot.SetStats(meta.ObjectStats{InodeCount: uint64(len(img.Labels))})

	used := make(map[meta.Key]bool)
	for _, l := range img.Labels {
		hashed := l.Name
		if l.CollideWith != "" {
			hashed = l.CollideWith
		}
		key := meta.DirHash(hashed)
		for used[key] {
			key++
		}
		used[key] = true

		root := s.newObject(types.RootObjectNumber, key, meta.Identity{
			ClusterID: l.ClusterID,
			Name:      l.Name,
			Role:      l.Role,
		})
		root.SetStats(meta.ObjectStats{InodeCount: uint64(1 + len(l.Files))})
		if l.Err != nil {
			root.SetErr(l.Err)
		}
		if l.Content > 0 {
			root.AddContent(l.Content)
		}
		e := &entry{key: key, obj: root, files: make(map[uint64]*meta.Object)}
		for _, num := range l.Files {
			e.files[num] = s.newObject(num, meta.Key(num), meta.Identity{
				Name: fmt.Sprintf("%s-obj-%d", l.Name, num),
			})
		}
		s.entries = append(s.entries, e)
	}
	sort.Slice(s.entries, func(i, j int) bool { return s.entries[i].key < s.entries[j].key })
	return s, nil
}

func (s *Store) newObject(num uint64, key meta.Key, ident meta.Identity) *meta.Object {
	s.allocs.Add(1)
	s.hook(1)
	return meta.NewObject(num, key, ident, func(*meta.Object) {
		s.allocs.Add(-1)
		s.hook(-1)
	})
}

// Allocs returns the number of objects not yet released.
func (s *Store) Allocs() int64 { return s.allocs.Load() }

// VolumeRoot implements meta.Store.
func (s *Store) VolumeRoot() *meta.Object { return s.volRoot }

// Lookup implements meta.Store.
func (s *Store) Lookup(parent *meta.Object, key meta.Key) (*meta.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("%w: store closed", types.ErrMediaError)
	}
	if parent == s.volRoot && key == meta.SuperRootKey {
		s.sroot.Ref()
		return s.sroot, nil
	}
	if parent == s.sroot {
		for _, e := range s.entries {
			if e.key == key {
				e.obj.Ref()
				return e.obj, nil
			}
		}
	}
	return nil, nil
}

// Range implements meta.Store.
func (s *Store) Range(parent *meta.Object, lo, hi meta.Key) ([]*meta.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("%w: store closed", types.ErrMediaError)
	}
	if parent != s.sroot {
		return nil, nil
	}
	var out []*meta.Object
	for _, e := range s.entries {
		if e.key >= lo && e.key <= hi {
			e.obj.Ref()
			out = append(out, e.obj)
		}
	}
	return out, nil
}

// LookupNumber implements meta.Store.
func (s *Store) LookupNumber(root *meta.Object, num uint64) (*meta.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("%w: store closed", types.ErrMediaError)
	}
	if num == root.Number() {
		root.Ref()
		return root, nil
	}
	for _, e := range s.entries {
		if e.obj != root {
			continue
		}
		if f, ok := e.files[num]; ok {
			f.Ref()
			return f, nil
		}
	}
	return nil, nil
}

// Close implements meta.Store: the store drops its base reference on
// every object it created. Objects the core still references survive
// until their last drop; Allocs exposes the leak count.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	objs := []*meta.Object{s.volRoot, s.sroot}
	for _, e := range s.entries {
		objs = append(objs, e.obj)
		for _, f := range e.files {
			objs = append(objs, f)
		}
	}
	s.mu.Unlock()

	for _, o := range objs {
		o.SetFlags(meta.FlagRelease)
		o.Drop()
	}
	return nil
}
