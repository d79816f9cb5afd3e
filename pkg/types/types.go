package types

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// MaxCluster is the fixed width of a PFS replica-slot array. A logical
// filesystem may be backed by at most this many (device, root object)
// bindings.
const MaxCluster = 8

// UserKeyMask strips hash bits from an object number, leaving the part
// that identifies the object within its PFS keyspace.
const UserKeyMask = 0x07FFFFFFFFFFFFFF

// RootObjectNumber is the well-known object number of a PFS root.
const RootObjectNumber = 1

// ClusterID identifies a logical filesystem instance cluster-wide.
// Replicas of the same PFS on different devices share one ClusterID.
type ClusterID [16]byte

// IsZero reports whether the id is the all-zero (unassigned) id.
func (c ClusterID) IsZero() bool {
	return c == ClusterID{}
}

// String returns the id in compact hex form.
func (c ClusterID) String() string {
	return hex.EncodeToString(c[:])
}

// Low returns the low 32 bits of the id, used when composing a
// filesystem id for an attached mount.
func (c ClusterID) Low() uint32 {
	return binary.LittleEndian.Uint32(c[:4])
}

// Role describes what a replica slot contributes to its PFS.
type Role uint8

const (
	RoleNone Role = iota
	RoleCache
	RoleSlave
	RoleMaster
	RoleSnapshot
	RoleSupRoot
)

var roleNames = map[Role]string{
	RoleNone:     "none",
	RoleCache:    "cache",
	RoleSlave:    "slave",
	RoleMaster:   "master",
	RoleSnapshot: "snapshot",
	RoleSupRoot:  "suproot",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// MountStats is the externally visible statistics block of an attached
// mount, populated from the volume header and the root object summary.
type MountStats struct {
	BlockSize   uint32 `json:"block_size"`
	Blocks      uint64 `json:"blocks"`
	BlocksFree  uint64 `json:"blocks_free"`
	BlocksAvail uint64 `json:"blocks_avail"`
	Inodes      uint64 `json:"inodes"`
	NameMax     uint32 `json:"name_max"`
	FSID        uint64 `json:"fsid"`
	FromName    string `json:"from_name"`
	FromSpec    string `json:"from_spec"`
	OnName      string `json:"on_name"`
}

// RuntimeCounters is a read-only snapshot of the live allocation
// counters exposed to the hosting environment.
type RuntimeCounters struct {
	FSObjects   int64 `json:"fs_objects"`
	MetaObjects int64 `json:"meta_objects"`
	IOUnits     int64 `json:"io_units"`
	IOUnitLimit int64 `json:"io_unit_limit"`
}
