package sm2ec_test

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/aacfactory/afsm2/gmsm/sm2/sm2ec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("device gone")
}

func TestScalarRange(t *testing.T) {
	n := sm2ec.P256().N()
	_, err := sm2ec.NewScalar().SetBytes(n)
	assert.ErrorIs(t, err, sm2ec.ErrInvalidEncoding)

	nMinus1 := new(big.Int).Sub(new(big.Int).SetBytes(n), big.NewInt(1))
	s, err := sm2ec.NewScalar().SetBytes(nMinus1.FillBytes(make([]byte, 32)))
	require.NoError(t, err)
	one := sm2ec.NewScalar().SetUint64(1)
	assert.Equal(t, 1, sm2ec.NewScalar().Add(s, one).IsZero())
}

func TestScalarReduction(t *testing.T) {
	n := new(big.Int).SetBytes(sm2ec.P256().N())
	v := new(big.Int).Add(n, big.NewInt(5))
	s := sm2ec.NewScalar().SetOverflowingBytes(v.Bytes())
	assert.Equal(t, 1, s.Equal(sm2ec.NewScalar().SetUint64(5)))

	long := bytes.Repeat([]byte{0xff}, 64)
	want := new(big.Int).Mod(new(big.Int).SetBytes(long), n)
	got := sm2ec.NewScalar().SetOverflowingBytes(long)
	assert.Equal(t, want.FillBytes(make([]byte, 32)), got.Bytes())
}

func TestScalarArithmetic(t *testing.T) {
	a, _ := randomPoint(t)
	b, _ := randomPoint(t)
	inv, err := sm2ec.NewScalar().Invert(a)
	require.NoError(t, err)
	assert.Equal(t, 1, sm2ec.NewScalar().Mul(a, inv).Equal(sm2ec.NewScalar().SetUint64(1)))

	diff := sm2ec.NewScalar().Sub(a, b)
	assert.Equal(t, 1, sm2ec.NewScalar().Add(diff, b).Equal(a))
	assert.Equal(t, 1, sm2ec.NewScalar().Add(a, sm2ec.NewScalar().Negate(a)).IsZero())

	_, err = sm2ec.NewScalar().Invert(sm2ec.NewScalar())
	assert.ErrorIs(t, err, sm2ec.ErrNotInvertible)
}

func TestRandomScalar(t *testing.T) {
	k, err := sm2ec.RandomScalar(bytes.NewReader(bytes.Repeat([]byte{0}, 31)))
	assert.Nil(t, k)
	assert.ErrorIs(t, err, sm2ec.ErrEntropyUnavailable)

	_, err = sm2ec.RandomScalar(failingReader{})
	assert.ErrorIs(t, err, sm2ec.ErrEntropyUnavailable)

	// zero is rejected every time
	_, err = sm2ec.RandomScalar(bytes.NewReader(make([]byte, 32*sm2ec.MaxRetry)))
	assert.ErrorIs(t, err, sm2ec.ErrRetryBoundExceeded)

	// values >= n are rejected, the next candidate is taken
	stream := append(bytes.Repeat([]byte{0xff}, 32), bytes.Repeat([]byte{0x01}, 32)...)
	k, err = sm2ec.RandomScalar(bytes.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0x01}, 32), k.Bytes())

	k, err = sm2ec.RandomScalar(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, k.IsZero())
}
