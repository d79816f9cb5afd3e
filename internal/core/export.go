package core

import (
	"fmt"
	"net/netip"

	"github.com/hivefs/hivefs/pkg/types"
)

// ExportSpec grants remote access to a mount for one address range.
type ExportSpec struct {
	Prefix   netip.Prefix
	ReadOnly bool
}

type exportTable []ExportSpec

// CheckExport decides whether a remote address may access the mount,
// returning the effective read-only flag of the first matching export.
// A mount with no exports admits nobody.
func (mp *MountPoint) CheckExport(addr netip.Addr) (readOnly bool, err error) {
	mp.pfs.mu.Lock()
	exports := mp.pfs.exports
	mp.pfs.mu.Unlock()

	for _, e := range exports {
		if e.Prefix.Contains(addr) {
			return e.ReadOnly, nil
		}
	}
	return false, fmt.Errorf("%w: %s not exported", types.ErrAccessDenied, addr)
}
