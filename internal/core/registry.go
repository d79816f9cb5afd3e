package core

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hivefs/hivefs/internal/config"
	"github.com/hivefs/hivefs/internal/meta"
	"github.com/hivefs/hivefs/internal/metrics"
	"github.com/hivefs/hivefs/internal/volume"
	"github.com/hivefs/hivefs/pkg/types"
)

// StoreOpener constructs the on-media tree service for a freshly
// assembled volume set. Supplied by the hosting environment.
type StoreOpener func(set *volume.Set) (meta.Store, error)

// Registry holds the three global tables — devices, cluster PFS
// instances and per-device super-root PFS instances — behind one
// exclusive reader/writer lock. Mount, unmount, allocation, reaping
// and scanning all run under its exclusive mode; it is ordered above
// every per-object lock and the only ambient mutable state of the
// core.
type Registry struct {
	mu sync.RWMutex

	cfg      *config.Configuration
	log      *slog.Logger
	counters *metrics.Counters

	storeOpener  StoreOpener
	handleOpener volume.Opener

	devices []*Device
	pfsList []*PFS // cluster-addressable instances
	spList  []*PFS // per-device super-root instances
}

// Option customizes a Registry.
type Option func(*Registry)

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// WithHandleOpener replaces the volume-handle opener, e.g. to serve
// object-storage volume paths.
func WithHandleOpener(open volume.Opener) Option {
	return func(r *Registry) { r.handleOpener = open }
}

// WithCounters shares an externally owned counter set, letting the
// media layer report its allocations into the same counters the
// registry exposes.
func WithCounters(c *metrics.Counters) Option {
	return func(r *Registry) { r.counters = c }
}

// NewRegistry builds a registry with empty tables.
func NewRegistry(cfg *config.Configuration, stores StoreOpener, opts ...Option) (*Registry, error) {
	if stores == nil {
		return nil, fmt.Errorf("%w: nil store opener", types.ErrInvalidArgument)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	r := &Registry{
		cfg:          cfg,
		log:          slog.Default(),
		storeOpener:  stores,
		handleOpener: volume.OpenFile,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.counters == nil {
		r.counters = metrics.NewCounters(cfg.EffectiveIOUnitLimit())
	}
	return r, nil
}

// Counters exposes the runtime counters, including the read-write
// cached-I/O-unit soft cap.
func (r *Registry) Counters() *metrics.Counters { return r.counters }

// Devices returns the number of open devices.
func (r *Registry) Devices() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Instances returns the sizes of the cluster and super-root PFS
// tables.
func (r *Registry) Instances() (cluster, superRoot int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pfsList), len(r.spList)
}

// Close tears the registry down. Every mount must be detached first.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.devices) > 0 {
		return fmt.Errorf("%w: %d devices still open", types.ErrBusy, len(r.devices))
	}
	return r.assertClean()
}

// assertClean verifies that nothing survived the last teardown.
// Called with the registry lock held once the device table is empty.
func (r *Registry) assertClean() error {
	snap := r.counters.Snapshot()
	if snap.FSObjects != 0 || snap.MetaObjects != 0 || snap.IOUnits != 0 {
		r.log.Error("objects left after last unmount",
			"fs_objects", snap.FSObjects,
			"meta_objects", snap.MetaObjects,
			"io_units", snap.IOUnits)
		return fmt.Errorf("%w: %d fs objects, %d meta objects, %d io units left",
			types.ErrInconsistent, snap.FSObjects, snap.MetaObjects, snap.IOUnits)
	}
	return nil
}

// deviceByHandles matches an already-open device by handle identity.
// An exact match returns the device; partial overlap with a
// differently composed device is refused.
func (r *Registry) deviceByHandles(handles []volume.Handle) (*Device, error) {
	want := make(map[uint64]bool)
	for _, h := range handles {
		want[h.DeviceID()] = true
	}
	for _, d := range r.devices {
		have := d.handleIDs()
		overlap := 0
		for id := range want {
			if have[id] {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		if overlap == len(have) && overlap == len(want) {
			return d, nil
		}
		return nil, fmt.Errorf("%w: volume set partially overlaps open device %s",
			types.ErrAlreadyInUse, d.set.FromName())
	}
	return nil, nil
}

// deviceByLabel resolves a device for a label-only mount by scanning
// replica-name bindings across the cluster table.
func (r *Registry) deviceByLabel(label string) *Device {
	for _, p := range r.pfsList {
		p.mu.Lock()
		for i := range p.slots {
			if p.slots[i].name == label && p.slots[i].dev != nil {
				dev := p.slots[i].dev
				p.mu.Unlock()
				return dev
			}
		}
		p.mu.Unlock()
	}
	return nil
}

func removeDevice(devices []*Device, dev *Device) []*Device {
	for i, d := range devices {
		if d == dev {
			return append(devices[:i], devices[i+1:]...)
		}
	}
	return devices
}

func removePFS(table []*PFS, p *PFS) []*PFS {
	for i, q := range table {
		if q == p {
			return append(table[:i], table[i+1:]...)
		}
	}
	return table
}
