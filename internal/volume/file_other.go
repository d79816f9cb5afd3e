//go:build !unix

package volume

import "os"

func fileDeviceID(_ os.FileInfo, path string) uint64 {
	return pathDeviceID(path)
}
