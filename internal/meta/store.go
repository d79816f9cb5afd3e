package meta

// Store is the on-media tree service backing one opened device. The
// lifecycle core consumes it opaquely: lookups return referenced
// objects the caller must eventually drop; per-entry corruption is
// reported through Object.Err rather than a call error, mirroring how
// range scans can partially succeed.
type Store interface {
	// VolumeRoot returns the device's embedded volume-root object.
	// The device holds a permanent reference for its lifetime; the
	// returned object is not additionally referenced.
	VolumeRoot() *Object

	// Lookup resolves the single object at exactly key under parent.
	// A nil object with a nil error means the key is absent.
	Lookup(parent *Object, key Key) (*Object, error)

	// Range resolves all objects with keys in [lo, hi] under parent
	// in key order. Each returned object is referenced.
	Range(parent *Object, lo, hi Key) ([]*Object, error)

	// LookupNumber resolves an object by its object number below
	// root. A nil object with a nil error means the number is absent.
	LookupNumber(root *Object, num uint64) (*Object, error)

	// Close releases store resources during device teardown.
	Close() error
}
