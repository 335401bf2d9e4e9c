package drbg

import (
	"encoding/binary"
	"errors"
	"hash"
	"time"

	"github.com/tjfoc/gmsm/sm3"
)

const (
	hashSeedSize    = 55
	hashMaxSeedSize = 111
	// sm3Size is the SM3 digest length; digests up to this size use the short seed.
	sm3Size = 32
)

// Hash is the Hash_DRBG mechanism of NIST SP 800-90A, which GM/T 0105
// adopts with its own reseed ordering and limits.
type Hash struct {
	Base
	newHash  func() hash.Hash
	c        []byte
	hashSize int
}

func NewHash(newHash func() hash.Hash, securityLevel SecurityLevel, gm bool, entropy, nonce, personalization []byte) (*Hash, error) {
	hd := &Hash{
		newHash: newHash,
	}
	hd.gm = gm
	hd.setSecurityLevel(securityLevel)
	hd.hashSize = newHash().Size()

	if err := hd.checkEntropy(entropy); err != nil {
		return nil, err
	}
	if len(nonce) == 0 || (hd.gm && len(nonce) < hd.hashSize/2) || len(nonce) >= MaxBytes>>1 {
		return nil, errors.New("drbg: invalid nonce length")
	}
	if len(personalization) >= MaxBytes {
		return nil, errors.New("drbg: personalization is too long")
	}

	hd.seedLength = hashSeedSize
	if hd.hashSize > sm3Size {
		hd.seedLength = hashMaxSeedSize
	}
	hd.v = make([]byte, hd.seedLength)
	hd.c = make([]byte, hd.seedLength)

	hd.update(concat(entropy, nonce, personalization))
	return hd, nil
}

func NewNistHash(newHash func() hash.Hash, securityLevel SecurityLevel, entropy, nonce, personalization []byte) (*Hash, error) {
	return NewHash(newHash, securityLevel, false, entropy, nonce, personalization)
}

func NewGmHash(securityLevel SecurityLevel, entropy, nonce, personalization []byte) (*Hash, error) {
	return NewHash(sm3.New, securityLevel, true, entropy, nonce, personalization)
}

func (hd *Hash) checkEntropy(entropy []byte) error {
	if len(entropy) == 0 || (hd.gm && len(entropy) < hd.hashSize) || len(entropy) >= MaxBytes {
		return errors.New("drbg: invalid entropy length")
	}
	return nil
}

// update derives V from seed material and C from V, then restarts the
// reseed counter and clock.
func (hd *Hash) update(seedMaterial []byte) {
	copy(hd.v, hd.derive(seedMaterial, hd.seedLength))
	copy(hd.c, hd.derive(concat([]byte{0}, hd.v), hd.seedLength))
	hd.reseedCounter = 1
	hd.reseedTime = time.Now()
}

func (hd *Hash) Reseed(entropy, additional []byte) error {
	if err := hd.checkEntropy(entropy); err != nil {
		return err
	}
	if len(additional) >= MaxBytes {
		return errors.New("drbg: additional input too long")
	}
	// GM/T 0105 places the entropy ahead of V, SP 800-90A after it.
	if hd.gm {
		hd.update(concat([]byte{1}, entropy, hd.v, additional))
	} else {
		hd.update(concat([]byte{1}, hd.v, entropy, additional))
	}
	return nil
}

func (hd *Hash) MaxBytesPerRequest() int {
	if hd.gm {
		return hd.hashSize
	}
	return MaxBytesPerGenerate
}

func (hd *Hash) Generate(b, additional []byte) error {
	if hd.NeedReseed() {
		return ErrReseedRequired
	}
	if len(b) > hd.MaxBytesPerRequest() {
		return errors.New("drbg: too many bytes requested")
	}
	if len(additional) > 0 {
		hd.addToV(hd.digest([]byte{0x02}, hd.v, additional))
	}
	if hd.gm {
		copy(b, hd.digest(hd.v))
	} else {
		data := make([]byte, hd.seedLength)
		copy(data, hd.v)
		for off := 0; off < len(b); off += hd.hashSize {
			copy(b[off:], hd.digest(data))
			addOne(data, hd.seedLength)
		}
	}
	// V = V + H(0x03 || V) + C + reseed_counter
	hd.addToV(hd.digest([]byte{0x03}, hd.v))
	add(hd.c, hd.v, hd.seedLength)
	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], hd.reseedCounter)
	hd.addToV(counter[:])

	hd.reseedCounter++
	return nil
}

// addToV adds the big-endian value w to V modulo 2^(8·seedLength).
func (hd *Hash) addToV(w []byte) {
	t := make([]byte, hd.seedLength)
	copy(t[hd.seedLength-len(w):], w)
	add(t, hd.v, hd.seedLength)
}

func (hd *Hash) digest(parts ...[]byte) []byte {
	md := hd.newHash()
	for _, part := range parts {
		md.Write(part)
	}
	return md.Sum(nil)
}

// derive is Hash_df: H(counter || bit length || input) blocks truncated to n bytes.
func (hd *Hash) derive(seedMaterial []byte, n int) []byte {
	var bitLen [4]byte
	binary.BigEndian.PutUint32(bitLen[:], uint32(n<<3))
	k := make([]byte, 0, n+hd.hashSize)
	for ct := byte(1); len(k) < n; ct++ {
		k = append(k, hd.digest([]byte{ct}, bitLen[:], seedMaterial)...)
	}
	return k[:n]
}

func concat(parts ...[]byte) []byte {
	size := 0
	for _, part := range parts {
		size += len(part)
	}
	out := make([]byte, 0, size)
	for _, part := range parts {
		out = append(out, part...)
	}
	return out
}
