package sm2ec

import (
	"sync"

	"github.com/aacfactory/afsm2/gmsm/internal/bigmod"
)

// FieldElement is an integer modulo p. The zero value is a valid zero.
// All operations run in time independent of the element values.
type FieldElement struct {
	v bigmod.Nat
}

func NewFieldElement() *FieldElement {
	e := &FieldElement{}
	e.v.SetUint64(0, fieldModulus())
	return e
}

func (e *FieldElement) Zero() *FieldElement {
	e.v.SetUint64(0, fieldModulus())
	return e
}

func (e *FieldElement) One() *FieldElement {
	e.v.SetUint64(1, fieldModulus())
	return e
}

func (e *FieldElement) Set(t *FieldElement) *FieldElement {
	e.v.Set(&t.v)
	return e
}

// SetBytes sets e to the 32-byte big-endian value v, rejecting v >= p.
func (e *FieldElement) SetBytes(v []byte) (*FieldElement, error) {
	if len(v) != ElementSize {
		return nil, ErrInvalidEncoding
	}
	if _, err := e.v.SetBytes(v, fieldModulus()); err != nil {
		return nil, ErrInvalidEncoding
	}
	return e, nil
}

// Bytes returns the 32-byte big-endian encoding of e.
func (e *FieldElement) Bytes() []byte {
	return e.v.Bytes(fieldModulus())
}

func (e *FieldElement) Equal(t *FieldElement) int {
	return e.v.Equal(&t.v)
}

func (e *FieldElement) IsZero() int {
	return e.v.IsZero()
}

// IsOdd returns the least significant bit of e.
func (e *FieldElement) IsOdd() int {
	b := e.Bytes()
	return int(b[len(b)-1] & 1)
}

func (e *FieldElement) Add(t1, t2 *FieldElement) *FieldElement {
	m := fieldModulus()
	r := new(bigmod.Nat).Set(&t1.v).Add(&t2.v, m)
	e.v.Set(r)
	return e
}

func (e *FieldElement) Sub(t1, t2 *FieldElement) *FieldElement {
	m := fieldModulus()
	r := new(bigmod.Nat).Set(&t1.v).Sub(&t2.v, m)
	e.v.Set(r)
	return e
}

func (e *FieldElement) Negate(t *FieldElement) *FieldElement {
	r := new(bigmod.Nat).Set(&t.v).Neg(fieldModulus())
	e.v.Set(r)
	return e
}

func (e *FieldElement) Mul(t1, t2 *FieldElement) *FieldElement {
	m := fieldModulus()
	r := new(bigmod.Nat).Set(&t1.v).Mul(&t2.v, m)
	e.v.Set(r)
	return e
}

func (e *FieldElement) Square(t *FieldElement) *FieldElement {
	return e.Mul(t, t)
}

// Invert sets e = 1/t mod p. Zero has no inverse.
func (e *FieldElement) Invert(t *FieldElement) (*FieldElement, error) {
	if t.IsZero() == 1 {
		return nil, ErrNotInvertible
	}
	e.invert(t)
	return e, nil
}

// invert maps zero to zero, which callers rely on for the identity point.
func (e *FieldElement) invert(t *FieldElement) *FieldElement {
	r := new(bigmod.Nat).Invert(&t.v, fieldModulus())
	e.v.Set(r)
	return e
}

// Sqrt sets e to a square root of t and returns 1, or leaves e unchanged
// and returns 0 when t is not a square. p = 3 mod 4, so the candidate is
// t^((p+1)/4).
func (e *FieldElement) Sqrt(t *FieldElement) (*FieldElement, int) {
	candidate := &FieldElement{}
	candidate.v.Exp(&t.v, P256().sqrtExp, fieldModulus())
	square := new(FieldElement).Square(candidate)
	ok := square.Equal(t)
	e.Select(candidate, e, ok)
	return e, ok
}

// Select sets e to a if cond == 1, and to b if cond == 0.
func (e *FieldElement) Select(a, b *FieldElement, cond int) *FieldElement {
	e.v.Select(&a.v, &b.v, cond)
	return e
}

func fieldFromBytes(b []byte) *FieldElement {
	e, err := new(FieldElement).SetBytes(b)
	if err != nil {
		panic("sm2ec: internal error: invalid field constant")
	}
	return e
}

var (
	curveBOnce sync.Once
	curveBElem *FieldElement
)

// curveB returns b as a shared, read-only element.
func curveB() *FieldElement {
	curveBOnce.Do(func() {
		curveBElem = fieldFromBytes(P256().b)
	})
	return curveBElem
}
