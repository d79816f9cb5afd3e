package types

import (
	"encoding/binary"
	"fmt"
)

// FileHandleSize is the fixed wire size of an encoded file handle:
// a 2-byte length, 2 bytes of alignment padding and two 8-byte words,
// of which only the first (the object number) is currently used.
const FileHandleSize = 20

// FileHandle identifies one filesystem object of an attached mount in
// a form stable across remounts, suitable for export protocols.
type FileHandle struct {
	ObjectNumber uint64
}

// Encode serializes the handle into its fixed wire form.
func (fh FileHandle) Encode() []byte {
	buf := make([]byte, FileHandleSize)
	binary.LittleEndian.PutUint16(buf[0:2], FileHandleSize)
	binary.LittleEndian.PutUint64(buf[4:12], fh.ObjectNumber)
	return buf
}

// DecodeFileHandle parses a wire-form handle. The embedded length must
// match the fixed size exactly.
func DecodeFileHandle(buf []byte) (FileHandle, error) {
	if len(buf) != FileHandleSize {
		return FileHandle{}, fmt.Errorf("%w: file handle length %d", ErrInvalidArgument, len(buf))
	}
	if l := binary.LittleEndian.Uint16(buf[0:2]); l != FileHandleSize {
		return FileHandle{}, fmt.Errorf("%w: file handle embedded length %d", ErrInvalidArgument, l)
	}
	return FileHandle{
		ObjectNumber: binary.LittleEndian.Uint64(buf[4:12]) & UserKeyMask,
	}, nil
}
