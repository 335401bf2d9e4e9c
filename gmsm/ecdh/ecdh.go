// Package ecdh derives static Diffie-Hellman secrets between SM2 keys, for
// callers that need a shared key without the interactive key exchange.
package ecdh

import (
	"errors"

	"github.com/aacfactory/afsm2/gmsm/kdf"
	"github.com/aacfactory/afsm2/gmsm/sm2"
	"github.com/aacfactory/afsm2/gmsm/sm2/sm2ec"
	"github.com/tjfoc/gmsm/sm3"
)

var (
	errNoLocalKey  = errors.New("ecdh: no local private key given")
	errNoRemoteKey = errors.New("ecdh: no remote public key given")
	ErrInfinity    = errors.New("ecdh: shared point is the infinity point")
)

// ECDH returns the affine coordinates of d·Q for the local scalar d and the
// remote point Q.
func ECDH(local *sm2.PrivateKey, remote *sm2.PublicKey) (x []byte, y []byte, err error) {
	if local == nil {
		err = errNoLocalKey
		return
	}
	if remote == nil {
		err = errNoRemoteKey
		return
	}
	raw := local.Bytes()
	d, scalarErr := sm2ec.NewScalar().SetBytes(raw)
	for i := range raw {
		raw[i] = 0
	}
	if scalarErr != nil {
		err = sm2.ErrInvalidPrivateKey
		return
	}
	shared := sm2ec.NewPoint().ScalarMult(remote.Point(), d)
	d.Zeroize()
	x, y, err = shared.Affine()
	if err != nil {
		err = ErrInfinity
		return
	}
	return
}

// SharedKey runs the SM3 KDF over x || y || info and returns keyLen bytes.
func SharedKey(local *sm2.PrivateKey, remote *sm2.PublicKey, keyLen int, info ...[]byte) (key []byte, err error) {
	x, y, err := ECDH(local, remote)
	if err != nil {
		return
	}
	z := make([][]byte, 0, 2+len(info))
	z = append(z, x, y)
	z = append(z, info...)
	key, err = kdf.Derive(sm3.New, keyLen, z...)
	for i := range x {
		x[i] = 0
		y[i] = 0
	}
	return
}
