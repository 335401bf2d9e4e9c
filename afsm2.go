// Package afsm2 wraps the SM2 algorithms of gmsm/sm2 behind hex encoded
// keys and signatures.
package afsm2

import (
	"fmt"

	"github.com/aacfactory/afsm2/gmsm/sm2"
)

// GenerateKey returns a new private key as 64 hex digits and its public key
// as the 128 hex digits of x||y.
func GenerateKey(opts ...Option) (priHex string, pubHex string, err error) {
	opt, optErr := newOptions(opts)
	if optErr != nil {
		err = fmt.Errorf("afsm2: generate key failed, %w", optErr)
		return
	}
	key, genErr := sm2.GenerateKey(opt.random)
	if genErr != nil {
		err = fmt.Errorf("afsm2: generate key failed, %w", genErr)
		return
	}
	priHex = key.Hex()
	pubHex = key.PublicKey.Hex()
	key.Destroy()
	return
}

// PublicKeyOf derives the public key hex from a private key hex.
func PublicKeyOf(priHex string) (pubHex string, err error) {
	key, parseErr := sm2.ParsePrivateKeyHex(priHex)
	if parseErr != nil {
		err = fmt.Errorf("afsm2: derive public key failed, %w", parseErr)
		return
	}
	pubHex = key.PublicKey.Hex()
	key.Destroy()
	return
}

// Sign signs msg and returns the 128 hex digits of r||s.
func Sign(priHex string, msg []byte, opts ...Option) (sigHex string, err error) {
	opt, optErr := newOptions(opts)
	if optErr != nil {
		err = fmt.Errorf("afsm2: sign failed, %w", optErr)
		return
	}
	key, parseErr := sm2.ParsePrivateKeyHex(priHex)
	if parseErr != nil {
		err = fmt.Errorf("afsm2: sign failed, %w", parseErr)
		return
	}
	defer key.Destroy()
	sig, signErr := sm2.Sign(opt.random, key, opt.uid, msg)
	if signErr != nil {
		err = fmt.Errorf("afsm2: sign failed, %w", signErr)
		return
	}
	sigHex = sig.Hex()
	return
}

// Verify reports whether sigHex is a signature of msg under pubHex. An error
// is returned only for a malformed public key or option; a malformed
// signature verifies as false.
func Verify(pubHex string, msg []byte, sigHex string, opts ...Option) (ok bool, err error) {
	opt, optErr := newOptions(opts)
	if optErr != nil {
		err = fmt.Errorf("afsm2: verify failed, %w", optErr)
		return
	}
	pub, parseErr := sm2.ParsePublicKeyHex(pubHex)
	if parseErr != nil {
		err = fmt.Errorf("afsm2: verify failed, %w", parseErr)
		return
	}
	sig, sigErr := sm2.ParseSignatureHex(sigHex)
	if sigErr != nil {
		return
	}
	ok = sm2.Verify(pub, opt.uid, msg, sig)
	return
}
