//go:build unix

package volume

import (
	"os"
	"syscall"
)

// fileDeviceID derives the raw media identity from the inode: two
// paths (symlinks, bind mounts) naming the same file yield the same
// id, which is what device-table dedup needs.
func fileDeviceID(fi os.FileInfo, path string) uint64 {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return uint64(st.Dev)<<32 ^ uint64(st.Ino)
	}
	return pathDeviceID(path)
}
