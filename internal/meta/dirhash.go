package meta

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// DirHashLoMask is the collision window of a directory-hash key: all
// entries hashing to the same upper bits land somewhere in
// [hash, hash|DirHashLoMask] and are disambiguated by literal name
// comparison.
const DirHashLoMask Key = 0x7FFF

// DirHash maps an entry name to its directory-hash key. The low
// collision-window bits are cleared; the media layer assigns them per
// entry. The zero key is reserved for the super-root.
func DirHash(name string) Key {
	sum := blake3.Sum256([]byte(name))
	key := Key(binary.LittleEndian.Uint64(sum[:8])) &^ DirHashLoMask
	if key == SuperRootKey {
		key = DirHashLoMask + 1
	}
	return key
}
