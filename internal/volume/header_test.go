package volume

import (
	"errors"
	"testing"

	"github.com/hivefs/hivefs/pkg/types"
)

func validHeader() *Header {
	return &Header{
		Magic:         MagicHBO,
		Version:       VersionDefault,
		VolumeNo:      0,
		NumVolumes:    1,
		BlockSize:     4096,
		VolumeSize:    1 << 30,
		TotalSize:     1 << 30,
		AllocatorSize: 1 << 30,
		AllocatorFree: 1 << 29,
		MirrorTID:     77,
		FSID:          types.ClusterID{1, 2, 3},
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	want := validHeader()
	buf := want.Encode()
	if len(buf) != HeaderSize {
		t.Fatalf("encoded header is %d bytes, want %d", len(buf), HeaderSize)
	}
	got, err := ParseHeader(buf)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if *got != *want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestParseHeaderRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(h *Header)
		trunc   int
		wantErr error
	}{
		{name: "truncated", trunc: 100, wantErr: types.ErrMediaError},
		{name: "bad magic", mutate: func(h *Header) { h.Magic = 0xdead }, wantErr: types.ErrMediaError},
		{name: "version zero", mutate: func(h *Header) { h.Version = 0 }, wantErr: types.ErrInvalidArgument},
		{name: "version too new", mutate: func(h *Header) { h.Version = VersionMax + 1 }, wantErr: types.ErrInvalidArgument},
		{name: "zero block size", mutate: func(h *Header) { h.BlockSize = 0 }, wantErr: types.ErrMediaError},
		{name: "zero volume count", mutate: func(h *Header) { h.NumVolumes = 0 }, wantErr: types.ErrMediaError},
		{name: "volume count too large", mutate: func(h *Header) { h.NumVolumes = types.MaxCluster + 1 }, wantErr: types.ErrMediaError},
		{name: "volume index out of range", mutate: func(h *Header) { h.VolumeNo = 1 }, wantErr: types.ErrMediaError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := validHeader()
			if tt.mutate != nil {
				tt.mutate(h)
			}
			buf := h.Encode()
			if tt.trunc > 0 {
				buf = buf[:tt.trunc]
			}
			_, err := ParseHeader(buf)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// Version 1 headers predate multi-volume support: the volume-count
// fields are ignored rather than validated.
func TestParseHeaderVersionGate(t *testing.T) {
	h := validHeader()
	h.Version = VersionMin
	h.NumVolumes = 0
	if _, err := ParseHeader(h.Encode()); err != nil {
		t.Fatalf("version-1 header rejected: %v", err)
	}
}

func TestParseHeaderByteSwapped(t *testing.T) {
	h := validHeader()
	h.Magic = MagicABO
	if _, err := ParseHeader(h.Encode()); err != nil {
		t.Fatalf("byte-swapped magic rejected: %v", err)
	}
}
