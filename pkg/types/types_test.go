package types

import (
	"errors"
	"testing"
)

func TestClusterID(t *testing.T) {
	var zero ClusterID
	if !zero.IsZero() {
		t.Error("zero id not detected")
	}

	id := ClusterID{0x12, 0x34, 0x56, 0x78, 0xff}
	if id.IsZero() {
		t.Error("nonzero id reported zero")
	}
	if got := id.String(); got[:10] != "12345678ff" {
		t.Errorf("String() = %q", got)
	}
	if got := id.Low(); got != 0x78563412 {
		t.Errorf("Low() = %#x", got)
	}
}

func TestRoleString(t *testing.T) {
	tests := map[Role]string{
		RoleNone:     "none",
		RoleCache:    "cache",
		RoleSlave:    "slave",
		RoleMaster:   "master",
		RoleSnapshot: "snapshot",
		RoleSupRoot:  "suproot",
		Role(99):     "role(99)",
	}
	for role, want := range tests {
		if got := role.String(); got != want {
			t.Errorf("Role(%d).String() = %q, want %q", role, got, want)
		}
	}
}

func TestFileHandleRoundTrip(t *testing.T) {
	fh := FileHandle{ObjectNumber: 0x1234}
	buf := fh.Encode()
	if len(buf) != FileHandleSize {
		t.Fatalf("encoded length %d", len(buf))
	}
	got, err := DecodeFileHandle(buf)
	if err != nil {
		t.Fatalf("DecodeFileHandle: %v", err)
	}
	if got != fh {
		t.Fatalf("round trip: %+v", got)
	}
}

func TestDecodeFileHandleMasksHashBits(t *testing.T) {
	fh := FileHandle{ObjectNumber: ^uint64(0)}
	got, err := DecodeFileHandle(fh.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if got.ObjectNumber != UserKeyMask {
		t.Fatalf("object number %#x, want %#x", got.ObjectNumber, uint64(UserKeyMask))
	}
}

func TestDecodeFileHandleRejects(t *testing.T) {
	if _, err := DecodeFileHandle(make([]byte, 8)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("short buffer: %v", err)
	}
	buf := FileHandle{ObjectNumber: 1}.Encode()
	buf[0] = 0xff // corrupt the embedded length
	if _, err := DecodeFileHandle(buf); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("bad embedded length: %v", err)
	}
}
