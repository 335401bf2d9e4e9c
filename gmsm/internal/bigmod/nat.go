package bigmod

import (
	"errors"
	"math/big"

	"github.com/cronokirby/saferith"
)

var errOverflow = errors.New("bigmod: input overflows the modulus")

// Modulus is an odd public modulus together with its fixed encoding size.
type Modulus struct {
	m     *saferith.Modulus
	raw   []byte
	size  int
	bits  int
	minus []byte
}

// NewModulusFromBig panics if n is not a positive odd integer larger than 2.
func NewModulusFromBig(n *big.Int) *Modulus {
	if n.Sign() <= 0 || n.Bit(0) == 0 || n.Cmp(big.NewInt(2)) <= 0 {
		panic("bigmod: modulus must be odd and larger than 2")
	}
	raw := n.Bytes()
	m := &Modulus{
		m:    saferith.ModulusFromBytes(raw),
		raw:  raw,
		size: len(raw),
		bits: n.BitLen(),
	}
	m.minus = new(big.Int).Sub(n, big.NewInt(2)).Bytes()
	return m
}

func (m *Modulus) Size() int {
	return m.size
}

func (m *Modulus) BitLen() int {
	return m.bits
}

// Bytes returns the big-endian encoding of the modulus, m.Size() bytes long.
func (m *Modulus) Bytes() []byte {
	out := make([]byte, len(m.raw))
	copy(out, m.raw)
	return out
}

func (m *Modulus) Big() *big.Int {
	return new(big.Int).SetBytes(m.raw)
}

// Nat is a residue modulo some Modulus. Every operation takes the modulus
// explicitly and leaves the receiver fully reduced.
type Nat struct {
	n saferith.Nat
}

func NewNat() *Nat {
	return &Nat{}
}

func (x *Nat) Set(y *Nat) *Nat {
	x.n.SetNat(&y.n)
	return x
}

func (x *Nat) SetUint64(v uint64, m *Modulus) *Nat {
	t := new(saferith.Nat).SetUint64(v)
	x.n.Mod(t, m.m)
	return x
}

// SetBytes sets x to the big-endian value b, which must be less than m.
func (x *Nat) SetBytes(b []byte, m *Modulus) (*Nat, error) {
	if len(b) > m.size {
		return nil, errOverflow
	}
	t := new(saferith.Nat).SetBytes(b)
	if _, _, lt := t.CmpMod(m.m); lt != 1 {
		return nil, errOverflow
	}
	x.n.Mod(t, m.m)
	return x, nil
}

// SetOverflowingBytes sets x to b mod m for any length of b. The running
// time depends only on len(b).
func (x *Nat) SetOverflowingBytes(b []byte, m *Modulus) *Nat {
	t := new(saferith.Nat).SetBytes(b)
	x.n.Mod(t, m.m)
	return x
}

// Bytes returns x as a big-endian slice of exactly m.Size() bytes.
func (x *Nat) Bytes(m *Modulus) []byte {
	return x.n.FillBytes(make([]byte, m.size))
}

// Equal returns 1 if x == y and 0 otherwise.
func (x *Nat) Equal(y *Nat) int {
	return int(x.n.Eq(&y.n))
}

// IsZero returns 1 if x == 0 and 0 otherwise.
func (x *Nat) IsZero() int {
	return int(x.n.EqZero())
}

// Select sets x to a if cond == 1 and to b if cond == 0.
func (x *Nat) Select(a, b *Nat, cond int) *Nat {
	t := new(saferith.Nat).SetNat(&b.n)
	t.CondAssign(saferith.Choice(cond&1), &a.n)
	x.n.SetNat(t)
	return x
}

func (x *Nat) Add(y *Nat, m *Modulus) *Nat {
	x.n.SetNat(new(saferith.Nat).ModAdd(&x.n, &y.n, m.m))
	return x
}

func (x *Nat) Sub(y *Nat, m *Modulus) *Nat {
	x.n.SetNat(new(saferith.Nat).ModSub(&x.n, &y.n, m.m))
	return x
}

func (x *Nat) Neg(m *Modulus) *Nat {
	x.n.SetNat(new(saferith.Nat).ModNeg(&x.n, m.m))
	return x
}

func (x *Nat) Mul(y *Nat, m *Modulus) *Nat {
	x.n.SetNat(new(saferith.Nat).ModMul(&x.n, &y.n, m.m))
	return x
}

// Exp sets out to x^e mod m. The running time depends on len(e) only.
func (out *Nat) Exp(x *Nat, e []byte, m *Modulus) *Nat {
	ee := new(saferith.Nat).SetBytes(e)
	out.n.SetNat(new(saferith.Nat).Exp(&x.n, ee, m.m))
	return out
}

// Invert sets out to x^-1 mod m using x^(m-2), which is only an inverse
// when m is prime. Zero maps to zero.
func (out *Nat) Invert(x *Nat, m *Modulus) *Nat {
	return out.Exp(x, m.minus, m)
}
