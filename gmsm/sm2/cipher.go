package sm2

import (
	"crypto"
	"crypto/subtle"
	"io"
	"math/big"

	"github.com/aacfactory/afsm2/gmsm/kdf"
	"github.com/aacfactory/afsm2/gmsm/sm2/sm2ec"
	"github.com/tjfoc/gmsm/sm3"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

type pointMarshalMode byte

const (
	MarshalUncompressed pointMarshalMode = iota
	MarshalCompressed
	MarshalHybrid
)

type ciphertextSplicingOrder byte

const (
	C1C3C2 ciphertextSplicingOrder = iota
	C1C2C3
)

type ciphertextEncoding byte

const (
	encodingPlain ciphertextEncoding = iota
	encodingAsn1
)

// EncryptorOpts selects the ciphertext layout produced by Encrypt.
type EncryptorOpts struct {
	ciphertextEncoding      ciphertextEncoding
	pointMarshalMode        pointMarshalMode
	ciphertextSplicingOrder ciphertextSplicingOrder
}

func NewPlainEncryptorOpts(marshalMode pointMarshalMode, splicingOrder ciphertextSplicingOrder) *EncryptorOpts {
	return &EncryptorOpts{encodingPlain, marshalMode, splicingOrder}
}

// DecryptorOpts selects the ciphertext layout expected by Decrypt. The
// plain layout detects the C1 point form from its first byte.
type DecryptorOpts struct {
	ciphertextEncoding      ciphertextEncoding
	cipherTextSplicingOrder ciphertextSplicingOrder
}

func NewPlainDecryptorOpts(splicingOrder ciphertextSplicingOrder) *DecryptorOpts {
	return &DecryptorOpts{encodingPlain, splicingOrder}
}

var defaultEncryptorOpts = &EncryptorOpts{encodingPlain, MarshalUncompressed, C1C3C2}

var defaultDecryptorOpts = &DecryptorOpts{encodingPlain, C1C3C2}

var ASN1EncryptorOpts = &EncryptorOpts{encodingAsn1, MarshalUncompressed, C1C3C2}

var ASN1DecryptorOpts = &DecryptorOpts{encodingAsn1, C1C3C2}

// Ciphertext is the (C1, C2, C3) triple of an SM2 encryption: C1 = k·G,
// C2 the masked plaintext and C3 = SM3(x2 || M || y2).
type Ciphertext struct {
	C1 *sm2ec.Point
	C2 []byte
	C3 []byte
}

// Marshal encodes c as opts describes, C1C3C2 uncompressed if opts is nil.
func (c *Ciphertext) Marshal(opts *EncryptorOpts) ([]byte, error) {
	if opts == nil {
		opts = defaultEncryptorOpts
	}
	if c.C1 == nil || c.C1.IsIdentity() == 1 || len(c.C3) != digestSize {
		return nil, ErrInvalidEncoding
	}
	if opts.ciphertextEncoding == encodingAsn1 {
		return c.marshalASN1()
	}
	var c1 []byte
	switch opts.pointMarshalMode {
	case MarshalCompressed:
		c1 = c.C1.BytesCompressed()
	case MarshalHybrid:
		c1 = c.C1.BytesHybrid()
	default:
		c1 = c.C1.Bytes()
	}
	out := make([]byte, 0, len(c1)+len(c.C2)+len(c.C3))
	out = append(out, c1...)
	if opts.ciphertextSplicingOrder == C1C3C2 {
		out = append(out, c.C3...)
		return append(out, c.C2...), nil
	}
	out = append(out, c.C2...)
	return append(out, c.C3...), nil
}

// marshalASN1 writes the GM/T 0009 structure
// SEQUENCE { x INTEGER, y INTEGER, hash OCTET STRING, cipherText OCTET STRING }.
func (c *Ciphertext) marshalASN1() ([]byte, error) {
	x, y, err := c.C1.Affine()
	if err != nil {
		return nil, err
	}
	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(new(big.Int).SetBytes(x))
		b.AddASN1BigInt(new(big.Int).SetBytes(y))
		b.AddASN1OctetString(c.C3)
		b.AddASN1OctetString(c.C2)
	})
	return b.Bytes()
}

// ParseCiphertext decodes b as opts describes, C1C3C2 plain if opts is nil.
// C1 is validated as a point on the curve other than the identity.
func ParseCiphertext(b []byte, opts *DecryptorOpts) (*Ciphertext, error) {
	if opts == nil {
		opts = defaultDecryptorOpts
	}
	if opts.ciphertextEncoding == encodingAsn1 {
		return parseCiphertextASN1(b)
	}
	if len(b) == 0 {
		return nil, errCiphertextTooShort
	}
	var c1Len int
	switch b[0] {
	case uncompressed, hybrid06, hybrid07:
		c1Len = 1 + 2*elementSize
	case compressed02, compressed03:
		c1Len = 1 + elementSize
	default:
		return nil, ErrInvalidEncoding
	}
	if len(b) <= c1Len+digestSize {
		return nil, errCiphertextTooShort
	}
	c1, err := parseC1(b[:c1Len])
	if err != nil {
		return nil, err
	}
	rest := b[c1Len:]
	c := &Ciphertext{C1: c1}
	if opts.cipherTextSplicingOrder == C1C3C2 {
		c.C3 = append([]byte{}, rest[:digestSize]...)
		c.C2 = append([]byte{}, rest[digestSize:]...)
	} else {
		c.C2 = append([]byte{}, rest[:len(rest)-digestSize]...)
		c.C3 = append([]byte{}, rest[len(rest)-digestSize:]...)
	}
	return c, nil
}

func parseCiphertextASN1(b []byte) (*Ciphertext, error) {
	var (
		x1, y1 = &big.Int{}, &big.Int{}
		c2, c3 []byte
		inner  cryptobyte.String
	)
	input := cryptobyte.String(b)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(x1) ||
		!inner.ReadASN1Integer(y1) ||
		!inner.ReadASN1Bytes(&c3, asn1.OCTET_STRING) ||
		!inner.ReadASN1Bytes(&c2, asn1.OCTET_STRING) ||
		!inner.Empty() {
		return nil, ErrInvalidEncoding
	}
	if x1.Sign() < 0 || y1.Sign() < 0 || x1.BitLen() > 8*elementSize || y1.BitLen() > 8*elementSize {
		return nil, ErrInvalidEncoding
	}
	if len(c3) != digestSize || len(c2) == 0 {
		return nil, ErrInvalidEncoding
	}
	c1, err := sm2ec.NewPoint().SetAffine(x1.FillBytes(make([]byte, elementSize)), y1.FillBytes(make([]byte, elementSize)))
	if err != nil {
		return nil, err
	}
	return &Ciphertext{C1: c1, C2: c2, C3: c3}, nil
}

func parseC1(b []byte) (*sm2ec.Point, error) {
	c1, err := sm2ec.NewPoint().SetBytes(b)
	if err != nil {
		return nil, err
	}
	if c1.IsIdentity() == 1 {
		return nil, ErrInvalidEncoding
	}
	return c1, nil
}

// ConvertCiphertext re-encodes a ciphertext from one layout to another,
// for example C1C2C3 to C1C3C2 or plain to ASN.1.
func ConvertCiphertext(b []byte, from *DecryptorOpts, to *EncryptorOpts) ([]byte, error) {
	c, err := ParseCiphertext(b, from)
	if err != nil {
		return nil, err
	}
	return c.Marshal(to)
}

// Encrypt encrypts msg to pub and encodes the result as opts describes.
func Encrypt(random io.Reader, pub *PublicKey, msg []byte, opts *EncryptorOpts) ([]byte, error) {
	c, err := EncryptToCiphertext(random, pub, msg)
	if err != nil {
		return nil, err
	}
	return c.Marshal(opts)
}

func EncryptASN1(random io.Reader, pub *PublicKey, msg []byte) ([]byte, error) {
	return Encrypt(random, pub, msg, ASN1EncryptorOpts)
}

// EncryptToCiphertext runs the encryption and returns the unencoded triple.
func EncryptToCiphertext(random io.Reader, pub *PublicKey, msg []byte) (*Ciphertext, error) {
	if pub == nil {
		return nil, ErrInvalidPublicKey
	}
	if len(msg) == 0 {
		return nil, ErrEmptyPlaintext
	}
	for retry := 0; retry < maxRetryLimit; retry++ {
		k, err := sm2ec.RandomScalar(random)
		if err != nil {
			return nil, err
		}
		c1 := sm2ec.NewPoint().ScalarBaseMult(k)
		shared := sm2ec.NewPoint().ScalarMult(pub.point, k)
		k.Zeroize()
		x2, y2, err := shared.Affine()
		if err != nil {
			// k·P is never the identity for a prime order P, k in [1, n-1]
			continue
		}
		t, err := kdf.Derive(sm3.New, len(msg), x2, y2)
		if err != nil {
			return nil, err
		}
		if isAllZero(t) {
			continue
		}
		subtle.XORBytes(t, t, msg)
		return &Ciphertext{C1: c1, C2: t, C3: c3Hash(x2, msg, y2)}, nil
	}
	return nil, ErrRetryBoundExceeded
}

// Decrypt decrypts a ciphertext in the default C1C3C2 plain layout.
func Decrypt(priv *PrivateKey, ciphertext []byte) ([]byte, error) {
	return DecryptWithOpts(priv, ciphertext, nil)
}

// DecryptWithOpts decrypts a ciphertext encoded as opts describes. Every
// failure after parsing is reported as ErrDecryption.
func DecryptWithOpts(priv *PrivateKey, ciphertext []byte, opts *DecryptorOpts) ([]byte, error) {
	c, err := ParseCiphertext(ciphertext, opts)
	if err != nil {
		return nil, ErrDecryption
	}
	return DecryptCiphertext(priv, c)
}

// DecryptCiphertext recovers the plaintext of c. It returns no plaintext
// unless C3 matches.
func DecryptCiphertext(priv *PrivateKey, c *Ciphertext) ([]byte, error) {
	if c == nil || c.C1 == nil || c.C1.IsIdentity() == 1 || len(c.C2) == 0 || len(c.C3) != digestSize {
		return nil, ErrDecryption
	}
	shared := sm2ec.NewPoint().ScalarMult(c.C1, priv.d)
	x2, y2, err := shared.Affine()
	if err != nil {
		return nil, ErrDecryption
	}
	msg, err := kdf.Derive(sm3.New, len(c.C2), x2, y2)
	if err != nil {
		return nil, ErrDecryption
	}
	zero := subtle.ConstantTimeCompare(msg, make([]byte, len(msg)))
	subtle.XORBytes(msg, msg, c.C2)
	u := c3Hash(x2, msg, y2)
	if subtle.ConstantTimeCompare(u, c.C3)&(zero^1) != 1 {
		destroyBytes(msg)
		return nil, ErrDecryption
	}
	return msg, nil
}

// Decrypt implements crypto.Decrypter. opts may be a *DecryptorOpts.
func (priv *PrivateKey) Decrypt(_ io.Reader, msg []byte, opts crypto.DecrypterOpts) (plaintext []byte, err error) {
	sm2Opts, _ := opts.(*DecryptorOpts)
	return DecryptWithOpts(priv, msg, sm2Opts)
}

func c3Hash(x2, msg, y2 []byte) []byte {
	md := sm3.New()
	md.Write(x2)
	md.Write(msg)
	md.Write(y2)
	return md.Sum(nil)
}

func isAllZero(b []byte) bool {
	return subtle.ConstantTimeCompare(b, make([]byte, len(b))) == 1
}

var _ crypto.Decrypter = (*PrivateKey)(nil)
var _ crypto.Signer = (*PrivateKey)(nil)
