package kdf

import (
	"encoding/binary"
	"errors"
	"hash"
)

var ErrKeyTooLong = errors.New("kdf: key length too long")

// Derive expands the concatenation of z into keyLen bytes as GB/T 32918.4
// describes: K = H(Z || ct) for ct = 1, 2, ... as 32-bit big-endian.
func Derive(newHash func() hash.Hash, keyLen int, z ...[]byte) (k []byte, err error) {
	if keyLen < 0 {
		err = errors.New("kdf: negative key length")
		return
	}
	md := newHash()
	size := md.Size()
	limit := (uint64(keyLen) + uint64(size) - 1) / uint64(size)
	if limit >= uint64(1<<32)-1 {
		err = ErrKeyTooLong
		return
	}
	var countBytes [4]byte
	var ct uint32 = 1
	k = make([]byte, keyLen)
	for i := 0; i < int(limit); i++ {
		binary.BigEndian.PutUint32(countBytes[:], ct)
		for _, part := range z {
			md.Write(part)
		}
		md.Write(countBytes[:])
		copy(k[i*size:], md.Sum(nil))
		ct++
		md.Reset()
	}
	return
}
