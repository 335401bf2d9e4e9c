package sm2

import (
	"crypto"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/aacfactory/afsm2/gmsm/sm2/sm2ec"
)

// PublicKey is a validated SM2 public point. It is never the identity.
type PublicKey struct {
	point *sm2ec.Point
	x     []byte
	y     []byte
}

// NewPublicKey decodes a SEC 1 encoded point (uncompressed, compressed or
// hybrid) and validates it as a public key.
func NewPublicKey(b []byte) (*PublicKey, error) {
	p, err := sm2ec.NewPoint().SetBytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	return newPublicKey(p)
}

// NewPublicKeyFromCoordinates builds a public key from 32-byte affine x and y.
func NewPublicKeyFromCoordinates(x, y []byte) (*PublicKey, error) {
	p, err := sm2ec.NewPoint().SetAffine(x, y)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	return newPublicKey(p)
}

// ParsePublicKeyHex accepts the hex of x||y, optionally prefixed by 04.
func ParsePublicKeyHex(s string) (*PublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, ErrInvalidEncoding)
	}
	switch len(raw) {
	case 2 * elementSize:
		return NewPublicKeyFromCoordinates(raw[:elementSize], raw[elementSize:])
	case 1 + 2*elementSize:
		if raw[0] != uncompressed {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, ErrInvalidEncoding)
		}
		return NewPublicKey(raw)
	default:
		return nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, ErrInvalidEncoding)
	}
}

func newPublicKey(p *sm2ec.Point) (*PublicKey, error) {
	if p.IsIdentity() == 1 {
		return nil, fmt.Errorf("%w: point is the identity", ErrInvalidPublicKey)
	}
	x, y, err := p.Affine()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	return &PublicKey{point: p, x: x, y: y}, nil
}

// Point returns a copy of the public point.
func (pub *PublicKey) Point() *sm2ec.Point {
	return sm2ec.NewPoint().Set(pub.point)
}

func (pub *PublicKey) X() []byte {
	return append([]byte{}, pub.x...)
}

func (pub *PublicKey) Y() []byte {
	return append([]byte{}, pub.y...)
}

// Bytes returns the uncompressed encoding 04||x||y.
func (pub *PublicKey) Bytes() []byte {
	out := make([]byte, 0, 1+2*elementSize)
	out = append(out, uncompressed)
	out = append(out, pub.x...)
	return append(out, pub.y...)
}

func (pub *PublicKey) BytesCompressed() []byte {
	return pub.point.BytesCompressed()
}

// Hex returns the upper-case hex of x||y without a point tag.
func (pub *PublicKey) Hex() string {
	return strings.ToUpper(hex.EncodeToString(pub.Bytes()[1:]))
}

func (pub *PublicKey) Equal(x crypto.PublicKey) bool {
	xx, ok := x.(*PublicKey)
	if !ok || xx == nil {
		return false
	}
	return subtle.ConstantTimeCompare(pub.x, xx.x)&subtle.ConstantTimeCompare(pub.y, xx.y) == 1
}

// PrivateKey is an SM2 key pair. The scalar d lies in [1, n-2], so that
// 1+d is invertible and the key can sign.
type PrivateKey struct {
	PublicKey
	d         *sm2ec.Scalar
	dPlus1Inv *sm2ec.Scalar
}

// GenerateKey draws a private key from random, crypto/rand.Reader if nil.
func GenerateKey(random io.Reader) (*PrivateKey, error) {
	for i := 0; i < maxRetryLimit; i++ {
		d, err := sm2ec.RandomScalar(random)
		if err != nil {
			return nil, err
		}
		priv, err := newPrivateKey(d)
		if err == nil {
			return priv, nil
		}
	}
	return nil, ErrRetryBoundExceeded
}

// NewPrivateKey builds a key pair from the big-endian scalar d. Shorter
// inputs are left padded to 32 bytes.
func NewPrivateKey(d []byte) (*PrivateKey, error) {
	if len(d) == 0 || len(d) > elementSize {
		return nil, ErrInvalidPrivateKey
	}
	padded := make([]byte, elementSize)
	copy(padded[elementSize-len(d):], d)
	defer destroyBytes(padded)
	k, err := sm2ec.NewScalar().SetBytes(padded)
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}
	return newPrivateKey(k)
}

// ParsePrivateKeyHex parses the 64 hex digits of d.
func ParsePrivateKeyHex(s string) (*PrivateKey, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil || len(raw) != elementSize {
		return nil, ErrInvalidPrivateKey
	}
	defer destroyBytes(raw)
	return NewPrivateKey(raw)
}

func newPrivateKey(d *sm2ec.Scalar) (*PrivateKey, error) {
	if d.IsZero() == 1 {
		return nil, ErrInvalidPrivateKey
	}
	one := sm2ec.NewScalar().SetUint64(1)
	dPlus1 := sm2ec.NewScalar().Add(d, one)
	dPlus1Inv, err := sm2ec.NewScalar().Invert(dPlus1)
	if err != nil {
		// d = n-1
		return nil, ErrInvalidPrivateKey
	}
	pub, err := newPublicKey(sm2ec.NewPoint().ScalarBaseMult(d))
	if err != nil {
		return nil, ErrInvalidPrivateKey
	}
	return &PrivateKey{
		PublicKey: *pub,
		d:         sm2ec.NewScalar().Set(d),
		dPlus1Inv: dPlus1Inv,
	}, nil
}

// Public returns the *PublicKey of the pair.
func (priv *PrivateKey) Public() crypto.PublicKey {
	return &priv.PublicKey
}

// Bytes returns d as 32 big-endian bytes.
func (priv *PrivateKey) Bytes() []byte {
	return priv.d.Bytes()
}

// Hex returns d as 64 upper-case hex digits.
func (priv *PrivateKey) Hex() string {
	return strings.ToUpper(hex.EncodeToString(priv.d.Bytes()))
}

func (priv *PrivateKey) Equal(x crypto.PrivateKey) bool {
	xx, ok := x.(*PrivateKey)
	if !ok || xx == nil {
		return false
	}
	return priv.PublicKey.Equal(&xx.PublicKey) && priv.d.Equal(xx.d) == 1
}

// Destroy zeroizes the secret scalars. The key is unusable afterwards.
func (priv *PrivateKey) Destroy() {
	priv.d.Zeroize()
	priv.dPlus1Inv.Zeroize()
}
