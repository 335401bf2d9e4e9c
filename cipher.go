package afsm2

import (
	"encoding/base64"
	"fmt"

	"github.com/aacfactory/afsm2/gmsm/sm2"
)

// Encrypt encrypts msg to pubHex. The ciphertext is 04||x1||y1 followed by
// C3 and C2 in the order of the mode.
func Encrypt(pubHex string, msg []byte, opts ...Option) (ciphertext []byte, err error) {
	opt, optErr := newOptions(opts)
	if optErr != nil {
		err = fmt.Errorf("afsm2: encrypt failed, %w", optErr)
		return
	}
	pub, parseErr := sm2.ParsePublicKeyHex(pubHex)
	if parseErr != nil {
		err = fmt.Errorf("afsm2: encrypt failed, %w", parseErr)
		return
	}
	ciphertext, err = sm2.Encrypt(opt.random, pub, msg, opt.mode.encryptorOpts())
	if err != nil {
		err = fmt.Errorf("afsm2: encrypt failed, %w", err)
		return
	}
	return
}

func Decrypt(priHex string, ciphertext []byte, opts ...Option) (msg []byte, err error) {
	opt, optErr := newOptions(opts)
	if optErr != nil {
		err = fmt.Errorf("afsm2: decrypt failed, %w", optErr)
		return
	}
	key, parseErr := sm2.ParsePrivateKeyHex(priHex)
	if parseErr != nil {
		err = fmt.Errorf("afsm2: decrypt failed, %w", parseErr)
		return
	}
	defer key.Destroy()
	msg, err = sm2.DecryptWithOpts(key, ciphertext, opt.mode.decryptorOpts())
	if err != nil {
		err = fmt.Errorf("afsm2: decrypt failed, %w", err)
		return
	}
	return
}

// EncryptToBase64 is Encrypt with the ciphertext in standard base64.
func EncryptToBase64(pubHex string, msg []byte, opts ...Option) (ciphertext string, err error) {
	raw, encErr := Encrypt(pubHex, msg, opts...)
	if encErr != nil {
		err = encErr
		return
	}
	ciphertext = base64.StdEncoding.EncodeToString(raw)
	return
}

func DecryptFromBase64(priHex string, ciphertext string, opts ...Option) (msg []byte, err error) {
	raw, decodeErr := base64.StdEncoding.DecodeString(ciphertext)
	if decodeErr != nil {
		err = fmt.Errorf("afsm2: decrypt failed, %w", sm2.ErrDecryption)
		return
	}
	msg, err = Decrypt(priHex, raw, opts...)
	return
}
