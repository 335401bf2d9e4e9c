package sm2

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aacfactory/afsm2/gmsm/sm2/sm2ec"
	"github.com/tjfoc/gmsm/sm3"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// directSigning marks SignerOption inputs as messages to be digested with ZA
// or as ready digests; no standard crypto.Hash applies.
var directSigning crypto.Hash = 0

// SignerOption configures PrivateKey.Sign.
type SignerOption struct {
	uid         []byte
	forceGMSign bool
	hedged      bool
}

// NewSignerOption builds signer options. With forceGMSign the input is the
// message and it is digested with ZA over uid (the default uid if empty);
// without it the input is an already computed digest e.
func NewSignerOption(forceGMSign bool, uid []byte) *SignerOption {
	opt := &SignerOption{
		uid:         uid,
		forceGMSign: forceGMSign,
	}
	if forceGMSign && len(uid) == 0 {
		opt.uid = defaultUID
	}
	return opt
}

// Hedged returns a copy of opt that mixes the private key and digest into
// the nonce stream, so a weak random source cannot leak the key.
func (opt *SignerOption) Hedged() *SignerOption {
	out := *opt
	out.hedged = true
	return &out
}

var DefaultSignerOpts = NewSignerOption(true, nil)

func (*SignerOption) HashFunc() crypto.Hash {
	return directSigning
}

// CalculateZA returns SM3(ENTL || uid || a || b || Gx || Gy || x || y).
func CalculateZA(pub *PublicKey, uid []byte) ([]byte, error) {
	uidLen := len(uid)
	if uidLen >= 0x2000 {
		return nil, ErrUIDTooLong
	}
	entla := uint16(uidLen) << 3
	params := sm2ec.P256()
	md := sm3.New()
	md.Write([]byte{byte(entla >> 8), byte(entla)})
	if uidLen > 0 {
		md.Write(uid)
	}
	md.Write(params.A())
	md.Write(params.B())
	md.Write(params.Gx())
	md.Write(params.Gy())
	md.Write(pub.x)
	md.Write(pub.y)
	return md.Sum(nil), nil
}

// Digest returns e = SM3(ZA || msg). An empty uid means the default uid.
func Digest(pub *PublicKey, uid, msg []byte) ([]byte, error) {
	if len(uid) == 0 {
		uid = defaultUID
	}
	za, err := CalculateZA(pub, uid)
	if err != nil {
		return nil, err
	}
	md := sm3.New()
	md.Write(za)
	md.Write(msg)
	return md.Sum(nil), nil
}

// Signature is an (r, s) pair as 32-byte big-endian values. Values read
// from the wire are only range checked by Verify.
type Signature struct {
	r []byte
	s []byte
}

// NewSignature builds a signature from r and s of at most 32 bytes each.
func NewSignature(r, s []byte) (*Signature, error) {
	if len(r) > elementSize || len(s) > elementSize {
		return nil, ErrInvalidSignature
	}
	sig := &Signature{r: make([]byte, elementSize), s: make([]byte, elementSize)}
	copy(sig.r[elementSize-len(r):], r)
	copy(sig.s[elementSize-len(s):], s)
	return sig, nil
}

// ParseSignature reads the 64-byte r||s form.
func ParseSignature(b []byte) (*Signature, error) {
	if len(b) != 2*elementSize {
		return nil, ErrInvalidSignature
	}
	return NewSignature(b[:elementSize], b[elementSize:])
}

// ParseSignatureHex reads 128 hex digits of r||s.
func ParseSignatureHex(s string) (*Signature, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, ErrInvalidSignature
	}
	return ParseSignature(raw)
}

// ParseSignatureASN1 reads SEQUENCE { r INTEGER, s INTEGER }.
func ParseSignatureASN1(sig []byte) (*Signature, error) {
	var (
		r, s  []byte
		inner cryptobyte.String
	)
	input := cryptobyte.String(sig)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(&r) ||
		!inner.ReadASN1Integer(&s) ||
		!inner.Empty() {
		return nil, ErrInvalidSignature
	}
	// a positive INTEGER may carry one leading zero octet
	r = trimLeadingZeros(r)
	s = trimLeadingZeros(s)
	return NewSignature(r, s)
}

func trimLeadingZeros(b []byte) []byte {
	for len(b) > 0 && b[0] == 0 {
		b = b[1:]
	}
	return b
}

func (sig *Signature) R() []byte {
	return append([]byte{}, sig.r...)
}

func (sig *Signature) S() []byte {
	return append([]byte{}, sig.s...)
}

// Bytes returns r||s.
func (sig *Signature) Bytes() []byte {
	out := make([]byte, 0, 2*elementSize)
	out = append(out, sig.r...)
	return append(out, sig.s...)
}

// Hex returns the upper-case hex of r||s.
func (sig *Signature) Hex() string {
	return strings.ToUpper(hex.EncodeToString(sig.Bytes()))
}

// MarshalASN1 returns the DER SEQUENCE { r INTEGER, s INTEGER }.
func (sig *Signature) MarshalASN1() ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		addASN1IntBytes(b, sig.r)
		addASN1IntBytes(b, sig.s)
	})
	return b.Bytes()
}

func addASN1IntBytes(b *cryptobyte.Builder, bytes []byte) {
	bytes = trimLeadingZeros(bytes)
	if len(bytes) == 0 {
		b.SetError(errors.New("sm2: invalid integer"))
		return
	}
	b.AddASN1(asn1.INTEGER, func(c *cryptobyte.Builder) {
		if bytes[0]&0x80 != 0 {
			c.AddUint8(0)
		}
		c.AddBytes(bytes)
	})
}

// Sign signs msg for the identity uid (default uid if empty).
func Sign(random io.Reader, priv *PrivateKey, uid, msg []byte) (*Signature, error) {
	e, err := Digest(&priv.PublicKey, uid, msg)
	if err != nil {
		return nil, err
	}
	return SignDigest(random, priv, e)
}

// SignDigest signs the digest e, drawing nonces straight from random
// (crypto/rand.Reader if nil).
func SignDigest(random io.Reader, priv *PrivateKey, e []byte) (*Signature, error) {
	return signDigest(random, priv, digestToScalar(e))
}

func signDigest(random io.Reader, priv *PrivateKey, e *sm2ec.Scalar) (*Signature, error) {
	for retry := 0; retry < maxRetryLimit; retry++ {
		k, err := sm2ec.RandomScalar(random)
		if err != nil {
			return nil, err
		}
		x1, err := sm2ec.NewPoint().ScalarBaseMult(k).BytesX()
		if err != nil {
			return nil, err
		}
		// r = (e + x1) mod n
		r := sm2ec.NewScalar().SetOverflowingBytes(x1)
		r.Add(r, e)
		if r.IsZero() == 1 {
			continue
		}
		if sm2ec.NewScalar().Add(r, k).IsZero() == 1 {
			continue
		}
		// s = (1+d)^-1 · (k - r·d) mod n
		s := sm2ec.NewScalar().Mul(r, priv.d)
		s.Sub(k, s)
		s.Mul(priv.dPlus1Inv, s)
		k.Zeroize()
		if s.IsZero() == 1 {
			continue
		}
		return &Signature{r: r.Bytes(), s: s.Bytes()}, nil
	}
	return nil, ErrRetryBoundExceeded
}

// Verify reports whether sig is a valid signature of msg by pub for uid.
func Verify(pub *PublicKey, uid, msg []byte, sig *Signature) bool {
	e, err := Digest(pub, uid, msg)
	if err != nil {
		return false
	}
	return VerifyDigest(pub, e, sig)
}

// VerifyDigest reports whether sig is a valid signature of the digest e.
func VerifyDigest(pub *PublicKey, e []byte, sig *Signature) bool {
	if pub == nil || sig == nil {
		return false
	}
	r, err := sm2ec.NewScalar().SetBytes(sig.r)
	if err != nil || r.IsZero() == 1 {
		return false
	}
	s, err := sm2ec.NewScalar().SetBytes(sig.s)
	if err != nil || s.IsZero() == 1 {
		return false
	}
	t := sm2ec.NewScalar().Add(r, s)
	if t.IsZero() == 1 {
		return false
	}
	p1 := sm2ec.NewPoint().ScalarBaseMult(s)
	p2 := sm2ec.NewPoint().ScalarMult(pub.point, t)
	x1, err := p1.Add(p1, p2).BytesX()
	if err != nil {
		return false
	}
	v := sm2ec.NewScalar().SetOverflowingBytes(x1)
	v.Add(v, digestToScalar(e))
	return v.Equal(r) == 1
}

// SignASN1 signs and returns a DER signature. opts may be a *SignerOption;
// any other value treats input as a digest.
func SignASN1(random io.Reader, priv *PrivateKey, input []byte, opts crypto.SignerOpts) ([]byte, error) {
	e := input
	var hedged bool
	if sm2Opts, ok := opts.(*SignerOption); ok {
		hedged = sm2Opts.hedged
		if sm2Opts.forceGMSign {
			digest, err := Digest(&priv.PublicKey, sm2Opts.uid, input)
			if err != nil {
				return nil, err
			}
			e = digest
		}
	}
	if hedged {
		csprng, err := mixedCSPRNG(random, priv, e)
		if err != nil {
			return nil, err
		}
		random = csprng
	}
	sig, err := SignDigest(random, priv, e)
	if err != nil {
		return nil, err
	}
	return sig.MarshalASN1()
}

// VerifyASN1 verifies a DER signature over the digest e.
func VerifyASN1(pub *PublicKey, e, sig []byte) bool {
	parsed, err := ParseSignatureASN1(sig)
	if err != nil {
		return false
	}
	return VerifyDigest(pub, e, parsed)
}

// VerifyASN1WithSM2 verifies a DER signature over msg for uid.
func VerifyASN1WithSM2(pub *PublicKey, uid, msg, sig []byte) bool {
	e, err := Digest(pub, uid, msg)
	if err != nil {
		return false
	}
	return VerifyASN1(pub, e, sig)
}

// Sign implements crypto.Signer and returns a DER signature.
func (priv *PrivateKey) Sign(random io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	return SignASN1(random, priv, digest, opts)
}

// digestToScalar keeps the leftmost bitlen(n) bits of longer digests and
// reduces the result modulo n.
func digestToScalar(e []byte) *sm2ec.Scalar {
	if len(e) > elementSize {
		e = e[:elementSize]
	}
	return sm2ec.NewScalar().SetOverflowingBytes(e)
}

// mixedCSPRNG derives an AES-CTR keystream from SHA-512(d || entropy || e).
func mixedCSPRNG(random io.Reader, priv *PrivateKey, e []byte) (io.Reader, error) {
	if random == nil {
		random = randReader()
	}
	entropy := make([]byte, 32)
	if _, err := io.ReadFull(random, entropy); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEntropyUnavailable, err)
	}

	md := sha512.New()
	md.Write(priv.d.Bytes())
	md.Write(entropy)
	md.Write(e)
	key := md.Sum(nil)[:32]

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	const aesIV = "IV for SM2 CTR.."
	return &cipher.StreamReader{
		R: zeroReader,
		S: cipher.NewCTR(block, []byte(aesIV)),
	}, nil
}

type zr struct{}

var zeroReader = &zr{}

func (zr) Read(dst []byte) (n int, err error) {
	for i := range dst {
		dst[i] = 0
	}
	return len(dst), nil
}
