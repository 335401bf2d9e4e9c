package sm2_test

import (
	"crypto"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/aacfactory/afsm2/gmsm/sm2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	katC1X = "04ebfc718e8d1798620432268e77feb6415e2ede0e073c0f4f640ecd2e149a73"
	katC1Y = "e858f9d81e5430a57b36daab8f950a3c64e6ee6a63094d99283aff767e124df0"
	katC3  = "59983c18f809e262923c53aec295d30383b54e39d609d160afcb1908d0bd8766"
	katC2  = "21886ca989ca9c7d58087307ca93092d651efa"
)

func TestEncryptKnownAnswer(t *testing.T) {
	priv := katKey(t)
	msg := []byte("encryption standard")

	ct, err := sm2.Encrypt(fixedReader(t, katNonce), &priv.PublicKey, msg, nil)
	require.NoError(t, err)
	assert.Equal(t, "04"+katC1X+katC1Y+katC3+katC2, hexString(ct))

	ct, err = sm2.Encrypt(fixedReader(t, katNonce), &priv.PublicKey, msg, sm2.NewPlainEncryptorOpts(sm2.MarshalUncompressed, sm2.C1C2C3))
	require.NoError(t, err)
	assert.Equal(t, "04"+katC1X+katC1Y+katC2+katC3, hexString(ct))

	plain, err := sm2.DecryptWithOpts(priv, ct, sm2.NewPlainDecryptorOpts(sm2.C1C2C3))
	require.NoError(t, err)
	assert.Equal(t, msg, plain)
}

func TestEncryptDecrypt(t *testing.T) {
	priv := generateKey(t)
	msg := []byte("send reinforcements, we're going to advance")

	for name, order := range map[string]struct {
		enc *sm2.EncryptorOpts
		dec *sm2.DecryptorOpts
	}{
		"default":    {nil, nil},
		"c1c2c3":     {sm2.NewPlainEncryptorOpts(sm2.MarshalUncompressed, sm2.C1C2C3), sm2.NewPlainDecryptorOpts(sm2.C1C2C3)},
		"compressed": {sm2.NewPlainEncryptorOpts(sm2.MarshalCompressed, sm2.C1C3C2), sm2.NewPlainDecryptorOpts(sm2.C1C3C2)},
		"hybrid":     {sm2.NewPlainEncryptorOpts(sm2.MarshalHybrid, sm2.C1C2C3), sm2.NewPlainDecryptorOpts(sm2.C1C2C3)},
		"asn1":       {sm2.ASN1EncryptorOpts, sm2.ASN1DecryptorOpts},
	} {
		ct, err := sm2.Encrypt(rand.Reader, &priv.PublicKey, msg, order.enc)
		require.NoError(t, err, name)
		plain, err := sm2.DecryptWithOpts(priv, ct, order.dec)
		require.NoError(t, err, name)
		assert.Equal(t, msg, plain, name)
	}

	ct, err := sm2.EncryptASN1(nil, &priv.PublicKey, msg)
	require.NoError(t, err)
	var decrypter crypto.Decrypter = priv
	plain, err := decrypter.Decrypt(nil, ct, sm2.ASN1DecryptorOpts)
	require.NoError(t, err)
	assert.Equal(t, msg, plain)
}

func TestEncryptSingleByte(t *testing.T) {
	priv := generateKey(t)
	ct, err := sm2.Encrypt(nil, &priv.PublicKey, []byte{0x5a}, nil)
	require.NoError(t, err)
	assert.Len(t, ct, 65+32+1)
	plain, err := sm2.Decrypt(priv, ct)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x5a}, plain)
}

func TestEncryptErrors(t *testing.T) {
	priv := katKey(t)
	_, err := sm2.Encrypt(nil, &priv.PublicKey, nil, nil)
	assert.ErrorIs(t, err, sm2.ErrEmptyPlaintext)
	_, err = sm2.Encrypt(failingReader{}, &priv.PublicKey, []byte("x"), nil)
	assert.ErrorIs(t, err, sm2.ErrEntropyUnavailable)
	_, err = sm2.Encrypt(nil, nil, []byte("x"), nil)
	assert.ErrorIs(t, err, sm2.ErrInvalidPublicKey)
}

func TestDecryptTampered(t *testing.T) {
	priv := katKey(t)
	ct, err := sm2.Encrypt(fixedReader(t, katNonce), &priv.PublicKey, []byte("encryption standard"), nil)
	require.NoError(t, err)

	// C1 occupies [0, 65), C3 [65, 97) and C2 the rest
	for _, i := range []int{1, 40, 64, 65, 80, 96, 97, len(ct) - 1} {
		tampered := append([]byte{}, ct...)
		tampered[i] ^= 0x01
		plain, err := sm2.Decrypt(priv, tampered)
		assert.True(t, errors.Is(err, sm2.ErrDecryption), "byte %d", i)
		assert.Nil(t, plain)
	}

	for _, n := range []int{0, 1, 65, 97} {
		_, err = sm2.Decrypt(priv, ct[:n])
		assert.ErrorIs(t, err, sm2.ErrDecryption)
	}

	wrong := append([]byte{0x05}, ct[1:]...)
	_, err = sm2.Decrypt(priv, wrong)
	assert.ErrorIs(t, err, sm2.ErrDecryption)

	_, err = sm2.Decrypt(generateKey(t), ct)
	assert.ErrorIs(t, err, sm2.ErrDecryption)
}

func TestCiphertextConversion(t *testing.T) {
	priv := katKey(t)
	ct, err := sm2.Encrypt(fixedReader(t, katNonce), &priv.PublicKey, []byte("encryption standard"), nil)
	require.NoError(t, err)

	c1c2c3, err := sm2.ConvertCiphertext(ct, nil, sm2.NewPlainEncryptorOpts(sm2.MarshalUncompressed, sm2.C1C2C3))
	require.NoError(t, err)
	assert.Equal(t, "04"+katC1X+katC1Y+katC2+katC3, hexString(c1c2c3))

	back, err := sm2.ConvertCiphertext(c1c2c3, sm2.NewPlainDecryptorOpts(sm2.C1C2C3), nil)
	require.NoError(t, err)
	assert.Equal(t, ct, back)

	der, err := sm2.ConvertCiphertext(ct, nil, sm2.ASN1EncryptorOpts)
	require.NoError(t, err)
	parsed, err := sm2.ParseCiphertext(der, sm2.ASN1DecryptorOpts)
	require.NoError(t, err)
	assert.Equal(t, katC3, hexString(parsed.C3))
	assert.Equal(t, katC2, hexString(parsed.C2))
	x, y, err := parsed.C1.Affine()
	require.NoError(t, err)
	assert.Equal(t, katC1X, hexString(x))
	assert.Equal(t, katC1Y, hexString(y))

	compressed, err := parsed.Marshal(sm2.NewPlainEncryptorOpts(sm2.MarshalCompressed, sm2.C1C3C2))
	require.NoError(t, err)
	assert.Len(t, compressed, 33+32+len(parsed.C2))
	plain, err := sm2.Decrypt(priv, compressed)
	require.NoError(t, err)
	assert.Equal(t, "encryption standard", string(plain))

	_, err = sm2.ParseCiphertext([]byte{0x30, 0x00}, sm2.ASN1DecryptorOpts)
	assert.ErrorIs(t, err, sm2.ErrInvalidEncoding)
}

func TestDecryptIdentityC1(t *testing.T) {
	priv := katKey(t)
	ct := append([]byte{0x00}, make([]byte, 40)...)
	_, err := sm2.Decrypt(priv, ct)
	assert.ErrorIs(t, err, sm2.ErrDecryption)
	_, err = sm2.DecryptCiphertext(priv, &sm2.Ciphertext{})
	assert.ErrorIs(t, err, sm2.ErrDecryption)
}
