package volume

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/hivefs/hivefs/pkg/types"
)

// Handle is one open backing-store descriptor: a local block device or
// regular file, or a ranged-read remote object.
type Handle interface {
	io.ReaderAt
	io.Closer

	// Path returns the spec path the handle was opened from.
	Path() string

	// DeviceID identifies the underlying raw media. Two handles
	// opened through different paths to the same media report the
	// same id; the device table dedups on it.
	DeviceID() uint64

	// Size returns the media size in bytes.
	Size() int64
}

// Opener resolves a spec path into an open handle.
type Opener func(ctx context.Context, path string) (Handle, error)

// Vol pairs one open handle with its parsed header.
type Vol struct {
	Handle Handle
	Header *Header
}

// Set is an ordered, validated collection of the volumes composing one
// backing store.
type Set struct {
	vols []Vol
}

// Open opens every path of a device spec. No cross-volume validation
// happens here; Assemble does that once headers are available. On any
// failure all handles opened so far are closed.
func Open(ctx context.Context, paths []string, open Opener) ([]Handle, error) {
	handles := make([]Handle, 0, len(paths))
	for _, p := range paths {
		h, err := open(ctx, p)
		if err != nil {
			closeAll(handles)
			return nil, fmt.Errorf("opening volume %s: %w", p, err)
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// Assemble reads each handle's header and orders the volumes into a
// set. All volumes must agree on filesystem id and volume count, and
// every index must be present exactly once.
func Assemble(handles []Handle) (*Set, error) {
	if len(handles) == 0 {
		return nil, fmt.Errorf("%w: empty volume set", types.ErrInvalidArgument)
	}
	hdrs := make([]*Header, len(handles))
	for i, h := range handles {
		hdr, err := ReadHeader(h)
		if err != nil {
			return nil, err
		}
		hdrs[i] = hdr
	}

	ref := hdrs[0]
	want := int(ref.NumVolumes)
	if ref.Version < VersionMultiVolume {
		want = 1
	}
	if want != len(handles) {
		return nil, fmt.Errorf("%w: %d volumes supplied, set wants %d",
			types.ErrInvalidArgument, len(handles), want)
	}

	set := &Set{vols: make([]Vol, want)}
	seen := make([]bool, want)
	for i, hdr := range hdrs {
		if hdr.FSID != ref.FSID {
			return nil, fmt.Errorf("%w: volume %s belongs to a different set",
				types.ErrInvalidArgument, handles[i].Path())
		}
		no := int(hdr.VolumeNo)
		if hdr.Version < VersionMultiVolume {
			no = 0
		}
		if no >= want || seen[no] {
			return nil, fmt.Errorf("%w: duplicate or out-of-range volume index %d",
				types.ErrMediaError, no)
		}
		seen[no] = true
		set.vols[no] = Vol{Handle: handles[i], Header: hdr}
	}
	return set, nil
}

// Root returns the header of volume zero, which carries the
// authoritative allocator and size fields.
func (s *Set) Root() *Header { return s.vols[0].Header }

// Len returns the number of volumes in the set.
func (s *Set) Len() int { return len(s.vols) }

// Handles returns the open handles in volume order.
func (s *Set) Handles() []Handle {
	hs := make([]Handle, len(s.vols))
	for i, v := range s.vols {
		hs[i] = v.Handle
	}
	return hs
}

// TotalSize returns the aggregate media size, honoring the version
// gate: pre-multi-volume headers report only their own volume size.
func (s *Set) TotalSize() uint64 {
	root := s.Root()
	if root.Version >= VersionMultiVolume {
		return root.TotalSize
	}
	return root.VolumeSize
}

// FromName composes the colon-joined volume path list used in mount
// statistics ("vol1:vol2").
func (s *Set) FromName() string {
	parts := make([]string, len(s.vols))
	for i, v := range s.vols {
		parts[i] = v.Handle.Path()
	}
	return strings.Join(parts, ":")
}

// Close closes every handle, aggregating failures.
func (s *Set) Close() error {
	var merr *multierror.Error
	for _, v := range s.vols {
		if err := v.Handle.Close(); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("closing %s: %w", v.Handle.Path(), err))
		}
	}
	return merr.ErrorOrNil()
}

func closeAll(handles []Handle) {
	for _, h := range handles {
		h.Close()
	}
}
