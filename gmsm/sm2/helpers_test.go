package sm2_test

import (
	"bytes"
	"encoding/hex"
	"io"
	"testing"

	"github.com/aacfactory/afsm2/gmsm/sm2"
	"github.com/stretchr/testify/require"
)

// Published GB/T 32918 example key and nonce over the recommended curve.
const (
	katPrivateKey = "3945208F7B2144B13F36E38AC6D39F95889393692860B51A42FB81EF4DF7C5B8"
	katPublicX    = "09F9DF311E5421A150DD7D161E4BC5C672179FAD1833FC076BB08FF356F35020"
	katPublicY    = "CCEA490CE26775A52DC6EA718CC1AA600AED05FBF35E084A6632F6072DA9AD13"
	katNonce      = "59276E27D506861A16680F3AD9C02DCCEF3CC1FA3CDBE4CE6D54B80DEAC1BC21"
)

func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// fixedReader hands out the given nonces in order, then fails.
func fixedReader(t *testing.T, nonces ...string) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	for _, n := range nonces {
		buf.Write(decodeHex(t, n))
	}
	return &buf
}

func katKey(t *testing.T) *sm2.PrivateKey {
	t.Helper()
	priv, err := sm2.ParsePrivateKeyHex(katPrivateKey)
	require.NoError(t, err)
	return priv
}

func generateKey(t *testing.T) *sm2.PrivateKey {
	t.Helper()
	priv, err := sm2.GenerateKey(nil)
	require.NoError(t, err)
	return priv
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func hexString(b []byte) string {
	return hex.EncodeToString(b)
}
