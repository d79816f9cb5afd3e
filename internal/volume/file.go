package volume

import (
	"context"
	"fmt"
	"os"

	"github.com/hivefs/hivefs/pkg/types"
)

// fileHandle backs a volume with a local regular file or block device.
type fileHandle struct {
	f    *os.File
	path string
	id   uint64
	size int64
}

// OpenFile is the default Opener for local paths.
func OpenFile(_ context.Context, path string) (Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: volume %s", types.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: opening volume %s: %v", types.ErrMediaError, path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", types.ErrMediaError, path, err)
	}
	return &fileHandle{
		f:    f,
		path: path,
		id:   fileDeviceID(fi, path),
		size: fi.Size(),
	}, nil
}

func (h *fileHandle) ReadAt(p []byte, off int64) (int, error) { return h.f.ReadAt(p, off) }
func (h *fileHandle) Close() error                            { return h.f.Close() }
func (h *fileHandle) Path() string                            { return h.path }
func (h *fileHandle) DeviceID() uint64                        { return h.id }
func (h *fileHandle) Size() int64                             { return h.size }
