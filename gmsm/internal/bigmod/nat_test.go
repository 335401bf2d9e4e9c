package bigmod

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNatModularOps(t *testing.T) {
	m := NewModulusFromBig(big.NewInt(13))
	assert.Equal(t, 1, m.Size())
	assert.Equal(t, 4, m.BitLen())

	x := NewNat().SetUint64(9, m)
	y := NewNat().SetUint64(7, m)

	assert.Equal(t, []byte{3}, NewNat().Set(x).Add(y, m).Bytes(m))
	assert.Equal(t, []byte{2}, NewNat().Set(x).Sub(y, m).Bytes(m))
	assert.Equal(t, []byte{11}, NewNat().Set(y).Sub(x, m).Bytes(m))
	assert.Equal(t, []byte{11}, NewNat().Set(x).Mul(y, m).Bytes(m))
	assert.Equal(t, []byte{4}, NewNat().Set(x).Neg(m).Bytes(m))

	inv := NewNat().Invert(x, m)
	assert.Equal(t, 1, NewNat().Set(inv).Mul(x, m).Equal(NewNat().SetUint64(1, m)))
	assert.Equal(t, 1, NewNat().Invert(NewNat().SetUint64(0, m), m).IsZero())

	assert.Equal(t, []byte{3}, NewNat().Exp(x, []byte{2}, m).Bytes(m))
}

func TestNatBytes(t *testing.T) {
	m := NewModulusFromBig(big.NewInt(65537))
	_, err := NewNat().SetBytes([]byte{0x01, 0x00, 0x01}, m)
	assert.Error(t, err)
	_, err = NewNat().SetBytes([]byte{0, 0x01, 0x00, 0x01}, m)
	assert.Error(t, err)

	x, err := NewNat().SetBytes([]byte{0x01, 0x00, 0x00}, m)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0x00}, x.Bytes(m))

	r := NewNat().SetOverflowingBytes([]byte{0x02, 0x00, 0x03}, m)
	assert.Equal(t, []byte{0x00, 0x00, 0x01}, r.Bytes(m))
}

func TestNatSelect(t *testing.T) {
	m := NewModulusFromBig(big.NewInt(101))
	a := NewNat().SetUint64(10, m)
	b := NewNat().SetUint64(20, m)
	assert.Equal(t, 1, NewNat().Select(a, b, 1).Equal(a))
	assert.Equal(t, 1, NewNat().Select(a, b, 0).Equal(b))
	// aliasing the receiver with an operand
	assert.Equal(t, 1, a.Select(b, a, 1).Equal(b))
}

func TestNewModulusRejectsEven(t *testing.T) {
	assert.Panics(t, func() { NewModulusFromBig(big.NewInt(16)) })
}
