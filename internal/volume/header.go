package volume

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/hivefs/hivefs/pkg/types"
)

// Volume header constants. The header occupies the first block of
// every volume of a set; multi-volume fields are only authoritative at
// or above VersionMultiVolume.
const (
	HeaderSize = 512

	// MagicHBO is the native (little-endian) volume magic ("HIVEFS2"
	// plus a version byte); MagicABO is its byte-swapped form written
	// by opposite-endian hosts. Both are accepted.
	MagicHBO uint64 = 0x0132534645564948
	MagicABO uint64 = 0x4849564546533201

	VersionMin         = 1
	VersionMultiVolume = 2
	VersionDefault     = VersionMultiVolume
	VersionMax         = VersionMultiVolume
)

// Header is the parsed volume header. Only the fields the lifecycle
// core consumes are represented; the on-media block carries more.
type Header struct {
	Magic         uint64
	Version       uint32
	VolumeNo      uint32
	NumVolumes    uint32
	BlockSize     uint32
	VolumeSize    uint64
	TotalSize     uint64
	AllocatorSize uint64
	AllocatorFree uint64
	MirrorTID     uint64
	FSID          types.ClusterID
}

// ParseHeader decodes and sanity-checks a raw volume header block.
func ParseHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: volume header truncated at %d bytes", types.ErrMediaError, len(buf))
	}
	var h Header
	r := bytes.NewReader(buf[:HeaderSize])
	for _, f := range []any{
		&h.Magic, &h.Version, &h.VolumeNo, &h.NumVolumes, &h.BlockSize,
		&h.VolumeSize, &h.TotalSize, &h.AllocatorSize, &h.AllocatorFree,
		&h.MirrorTID, &h.FSID,
	} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, fmt.Errorf("%w: volume header decode: %v", types.ErrMediaError, err)
		}
	}
	if h.Magic != MagicHBO && h.Magic != MagicABO {
		return nil, fmt.Errorf("%w: bad volume magic %#x", types.ErrMediaError, h.Magic)
	}
	if h.Version < VersionMin || h.Version > VersionMax {
		return nil, fmt.Errorf("%w: unsupported volume version %d", types.ErrInvalidArgument, h.Version)
	}
	if h.BlockSize == 0 {
		return nil, fmt.Errorf("%w: zero block size", types.ErrMediaError)
	}
	if h.Version >= VersionMultiVolume {
		if h.NumVolumes == 0 || h.NumVolumes > types.MaxCluster {
			return nil, fmt.Errorf("%w: volume count %d", types.ErrMediaError, h.NumVolumes)
		}
		if h.VolumeNo >= h.NumVolumes {
			return nil, fmt.Errorf("%w: volume index %d of %d", types.ErrMediaError, h.VolumeNo, h.NumVolumes)
		}
	}
	return &h, nil
}

// Encode serializes the header into a full header block. Used by image
// construction and tests; the media layer owns the real format.
func (h *Header) Encode() []byte {
	var b bytes.Buffer
	for _, f := range []any{
		h.Magic, h.Version, h.VolumeNo, h.NumVolumes, h.BlockSize,
		h.VolumeSize, h.TotalSize, h.AllocatorSize, h.AllocatorFree,
		h.MirrorTID, h.FSID,
	} {
		binary.Write(&b, binary.LittleEndian, f)
	}
	buf := make([]byte, HeaderSize)
	copy(buf, b.Bytes())
	return buf
}

// ReadHeader reads and parses the header block from an open handle.
func ReadHeader(h Handle) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := h.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("%w: reading volume header of %s: %v", types.ErrMediaError, h.Path(), err)
	}
	return ParseHeader(buf)
}
