package sm2ec

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/aacfactory/afsm2/gmsm/internal/bigmod"
)

// Scalar is an integer modulo the group order n.
type Scalar struct {
	v bigmod.Nat
}

func NewScalar() *Scalar {
	s := &Scalar{}
	s.v.SetUint64(0, orderModulus())
	return s
}

func (s *Scalar) Set(t *Scalar) *Scalar {
	s.v.Set(&t.v)
	return s
}

func (s *Scalar) SetUint64(v uint64) *Scalar {
	s.v.SetUint64(v, orderModulus())
	return s
}

// SetBytes sets s to the 32-byte big-endian value v, rejecting v >= n.
func (s *Scalar) SetBytes(v []byte) (*Scalar, error) {
	if len(v) != ElementSize {
		return nil, ErrInvalidEncoding
	}
	if _, err := s.v.SetBytes(v, orderModulus()); err != nil {
		return nil, ErrInvalidEncoding
	}
	return s, nil
}

// SetOverflowingBytes sets s to v mod n for a big-endian v of any length,
// such as a digest.
func (s *Scalar) SetOverflowingBytes(v []byte) *Scalar {
	s.v.SetOverflowingBytes(v, orderModulus())
	return s
}

func (s *Scalar) Bytes() []byte {
	return s.v.Bytes(orderModulus())
}

func (s *Scalar) Equal(t *Scalar) int {
	return s.v.Equal(&t.v)
}

func (s *Scalar) IsZero() int {
	return s.v.IsZero()
}

func (s *Scalar) Add(x, y *Scalar) *Scalar {
	r := new(bigmod.Nat).Set(&x.v).Add(&y.v, orderModulus())
	s.v.Set(r)
	return s
}

func (s *Scalar) Sub(x, y *Scalar) *Scalar {
	r := new(bigmod.Nat).Set(&x.v).Sub(&y.v, orderModulus())
	s.v.Set(r)
	return s
}

func (s *Scalar) Negate(x *Scalar) *Scalar {
	r := new(bigmod.Nat).Set(&x.v).Neg(orderModulus())
	s.v.Set(r)
	return s
}

func (s *Scalar) Mul(x, y *Scalar) *Scalar {
	r := new(bigmod.Nat).Set(&x.v).Mul(&y.v, orderModulus())
	s.v.Set(r)
	return s
}

// Invert sets s = 1/x mod n.
func (s *Scalar) Invert(x *Scalar) (*Scalar, error) {
	if x.IsZero() == 1 {
		return nil, ErrNotInvertible
	}
	r := new(bigmod.Nat).Invert(&x.v, orderModulus())
	s.v.Set(r)
	return s, nil
}

func (s *Scalar) Select(a, b *Scalar, cond int) *Scalar {
	s.v.Select(&a.v, &b.v, cond)
	return s
}

// Zeroize overwrites s with zero.
func (s *Scalar) Zeroize() {
	s.v.SetUint64(0, orderModulus())
}

// RandomScalar draws a uniform scalar in [1, n-1] from rand by rejection
// sampling. A nil rand means crypto/rand.Reader.
func RandomScalar(random io.Reader) (*Scalar, error) {
	if random == nil {
		random = rand.Reader
	}
	buf := make([]byte, ElementSize)
	s := new(Scalar)
	for i := 0; i < MaxRetry; i++ {
		if _, err := io.ReadFull(random, buf); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
		}
		if _, err := s.SetBytes(buf); err != nil {
			continue
		}
		if s.IsZero() == 1 {
			continue
		}
		return s, nil
	}
	return nil, ErrRetryBoundExceeded
}
