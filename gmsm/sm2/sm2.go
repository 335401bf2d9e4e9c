// Package sm2 implements the SM2 public key algorithms of GB/T 32918:
// digital signatures, public key encryption and key exchange.
package sm2

import (
	"crypto/rand"
	"errors"
	"io"

	"github.com/aacfactory/afsm2/gmsm/sm2/sm2ec"
)

const (
	uncompressed byte = 0x04
	compressed02 byte = 0x02
	compressed03 byte = compressed02 | 0x01
	hybrid06     byte = 0x06
	hybrid07     byte = hybrid06 | 0x01
)

const (
	// digestSize is the SM3 output length.
	digestSize  = 32
	elementSize = sm2ec.ElementSize
	// maxRetryLimit bounds the retry loops on degenerate nonces.
	maxRetryLimit = sm2ec.MaxRetry
)

var (
	ErrInvalidEncoding    = sm2ec.ErrInvalidEncoding
	ErrPointNotOnCurve    = sm2ec.ErrPointNotOnCurve
	ErrEntropyUnavailable = sm2ec.ErrEntropyUnavailable
	ErrRetryBoundExceeded = sm2ec.ErrRetryBoundExceeded

	ErrInvalidPrivateKey = errors.New("sm2: invalid private key")
	ErrInvalidPublicKey  = errors.New("sm2: invalid public key")
	ErrInvalidSignature  = errors.New("sm2: invalid signature encoding")
	ErrDecryption        = errors.New("sm2: decryption error")
	ErrKeyConfirmation   = errors.New("sm2: key confirmation failed")
	ErrUIDTooLong        = errors.New("sm2: the uid is too long")
	ErrEmptyPlaintext    = errors.New("sm2: plaintext is empty")

	errCiphertextTooShort = errors.New("sm2: ciphertext too short")
)

var defaultUID = []byte{0x31, 0x32, 0x33, 0x34, 0x35, 0x36, 0x37, 0x38, 0x31, 0x32, 0x33, 0x34, 0x35, 0x36, 0x37, 0x38}

// DefaultUID returns the identifier used when a caller supplies none.
func DefaultUID() []byte {
	uid := make([]byte, len(defaultUID))
	copy(uid, defaultUID)
	return uid
}

func destroyBytes(bytes []byte) {
	for i := range bytes {
		bytes[i] = 0
	}
}

func randReader() io.Reader {
	return rand.Reader
}
