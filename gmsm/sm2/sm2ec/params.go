package sm2ec

import (
	"math/big"
	"sync"

	"github.com/aacfactory/afsm2/gmsm/internal/bigmod"
)

const (
	// ElementSize is the byte length of field elements and scalars.
	ElementSize = 32
	// MaxRetry caps every rejection or degenerate-value loop.
	MaxRetry = 10
)

// Params is the SM2 recommended curve y² = x³ + ax + b over GF(p).
// A Params value is created once and never modified.
type Params struct {
	name     string
	bitSize  int
	p        *bigmod.Modulus
	n        *bigmod.Modulus
	a        []byte
	b        []byte
	gx       []byte
	gy       []byte
	sqrtExp  []byte
	cofactor int
}

var (
	p256Once   sync.Once
	p256Params *Params
)

// P256 returns the SM2 curve parameters.
func P256() *Params {
	p256Once.Do(initP256)
	return p256Params
}

func initP256() {
	p := mustHex("FFFFFFFEFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF00000000FFFFFFFFFFFFFFFF")
	n := mustHex("FFFFFFFEFFFFFFFFFFFFFFFFFFFFFFFF7203DF6B21C6052B53BBF40939D54123")
	a := new(big.Int).Sub(p, big.NewInt(3))
	sqrtExp := new(big.Int).Add(p, big.NewInt(1))
	sqrtExp.Rsh(sqrtExp, 2)
	p256Params = &Params{
		name:     "SM2-P-256",
		bitSize:  256,
		p:        bigmod.NewModulusFromBig(p),
		n:        bigmod.NewModulusFromBig(n),
		a:        a.FillBytes(make([]byte, ElementSize)),
		b:        mustHex("28E9FA9E9D9F5E344D5A9E4BCF6509A7F39789F515AB8F92DDBCBD414D940E93").FillBytes(make([]byte, ElementSize)),
		gx:       mustHex("32C4AE2C1F1981195F9904466A39C9948FE30BBFF2660BE1715A4589334C74C7").FillBytes(make([]byte, ElementSize)),
		gy:       mustHex("BC3736A2F4F6779C59BDCEE36B692153D0A9877CC62A474002DF32E52139F0A0").FillBytes(make([]byte, ElementSize)),
		sqrtExp:  sqrtExp.Bytes(),
		cofactor: 1,
	}
}

func mustHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("sm2ec: invalid curve constant")
	}
	return v
}

func (params *Params) Name() string {
	return params.name
}

func (params *Params) BitSize() int {
	return params.bitSize
}

func (params *Params) Cofactor() int {
	return params.cofactor
}

// P returns the field prime as 32 big-endian bytes.
func (params *Params) P() []byte {
	return params.p.Bytes()
}

// N returns the group order as 32 big-endian bytes.
func (params *Params) N() []byte {
	return params.n.Bytes()
}

func (params *Params) A() []byte {
	return clone(params.a)
}

func (params *Params) B() []byte {
	return clone(params.b)
}

func (params *Params) Gx() []byte {
	return clone(params.gx)
}

func (params *Params) Gy() []byte {
	return clone(params.gy)
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func fieldModulus() *bigmod.Modulus {
	return P256().p
}

func orderModulus() *bigmod.Modulus {
	return P256().n
}
