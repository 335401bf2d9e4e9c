package afsm2

import (
	"fmt"
	"io"

	"github.com/aacfactory/afsm2/gmsm/drbg"
	"github.com/aacfactory/afsm2/gmsm/sm2"
)

// Mode is the order of the ciphertext parts after C1.
type Mode byte

const (
	C1C3C2 Mode = iota
	C1C2C3
)

func ParseMode(b byte) (mode Mode, err error) {
	switch Mode(b) {
	case C1C3C2:
		mode = C1C3C2
	case C1C2C3:
		mode = C1C2C3
	default:
		err = fmt.Errorf("afsm2: invalid cipher mode %d", b)
	}
	return
}

func (mode Mode) String() string {
	switch mode {
	case C1C3C2:
		return "C1C3C2"
	case C1C2C3:
		return "C1C2C3"
	default:
		return "UNKNOWN"
	}
}

func (mode Mode) encryptorOpts() *sm2.EncryptorOpts {
	if mode == C1C2C3 {
		return sm2.NewPlainEncryptorOpts(sm2.MarshalUncompressed, sm2.C1C2C3)
	}
	return sm2.NewPlainEncryptorOpts(sm2.MarshalUncompressed, sm2.C1C3C2)
}

func (mode Mode) decryptorOpts() *sm2.DecryptorOpts {
	if mode == C1C2C3 {
		return sm2.NewPlainDecryptorOpts(sm2.C1C2C3)
	}
	return sm2.NewPlainDecryptorOpts(sm2.C1C3C2)
}

type Option func(*Options) error

// WithUID sets the signer identity, at most 8191 bytes.
func WithUID(uid []byte) Option {
	return func(options *Options) error {
		if len(uid) >= 0x2000 {
			return sm2.ErrUIDTooLong
		}
		options.uid = uid
		return nil
	}
}

func WithMode(mode Mode) Option {
	return func(options *Options) error {
		if _, err := ParseMode(byte(mode)); err != nil {
			return err
		}
		options.mode = mode
		return nil
	}
}

// WithRandom replaces the default SM3 hash DRBG.
func WithRandom(random io.Reader) Option {
	return func(options *Options) error {
		if random == nil {
			return fmt.Errorf("afsm2: random source is nil")
		}
		options.random = random
		return nil
	}
}

type Options struct {
	uid    []byte
	mode   Mode
	random io.Reader
}

func newOptions(opts []Option) (opt *Options, err error) {
	opt = &Options{
		uid:    sm2.DefaultUID(),
		mode:   C1C3C2,
		random: drbg.Reader(),
	}
	for _, option := range opts {
		if option == nil {
			continue
		}
		if err = option(opt); err != nil {
			opt = nil
			return
		}
	}
	return
}
