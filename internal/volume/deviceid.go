package volume

import (
	"encoding/binary"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

// pathDeviceID is the fallback media identity when no inode identity
// is available: a stable hash of the normalized path. URL-style paths
// (s3://...) are hashed as-is.
func pathDeviceID(path string) uint64 {
	norm := path
	if !strings.Contains(path, "://") {
		if abs, err := filepath.Abs(path); err == nil {
			norm = abs
		} else {
			norm = filepath.Clean(path)
		}
	}
	sum := blake3.Sum256([]byte(norm))
	return binary.LittleEndian.Uint64(sum[:8])
}
