package sm2

import (
	"crypto/subtle"
	"errors"
	"io"

	"github.com/aacfactory/afsm2/gmsm/kdf"
	"github.com/aacfactory/afsm2/gmsm/sm2/sm2ec"
	"github.com/tjfoc/gmsm/sm3"
)

// avfBits is w = ceil(bitlen(n)/2) - 1 for the 256-bit order.
const avfBits = 127

// KeyExchange runs one side of the GB/T 32918.3 key agreement.
// Usage:
// 1. initiator create key exchanging
// 1.1. initiator, err := sm2.NewKeyExchange(initiatorPRI, responderPUB, initiatorUID, responderUID, keyLen, true)
// 1.2. rA, err := initiator.Init(rand.Reader)
// 1.3. send rA to responder
// 2. responder create key exchanging
// 2.1. responder, err := sm2.NewKeyExchange(responderPRI, initiatorPUB, responderUID, initiatorUID, keyLen, true)
// 2.2. rB, sB, err := responder.Respond(rand.Reader, rA)
// 2.3. send rB and sB to initiator
// 3. initiator confirm
// 3.1 key, sA, err := initiator.ConfirmResponder(rB, sB)
// 3.2 initiator.Destroy()
// 3.3 send sA to responder
// 4. responder confirm
// 4.1 key, err := responder.ConfirmInitiator(sA)
// 4.2 responder.Destroy()
type KeyExchange struct {
	genSignature bool
	keyLength    int
	privateKey   *PrivateKey
	z            []byte
	peerPub      *PublicKey
	peerZ        []byte
	r            *sm2ec.Scalar
	secret       *PublicKey
	peerSecret   *PublicKey
	vx           []byte
	vy           []byte
}

// NewKeyExchange prepares a session between priv and peerPub. With
// genSignature both sides exchange and check confirmation tags.
func NewKeyExchange(priv *PrivateKey, peerPub *PublicKey, uid, peerUID []byte, keyLen int, genSignature bool) (ke *KeyExchange, err error) {
	if priv == nil {
		err = ErrInvalidPrivateKey
		return
	}
	if peerPub == nil {
		err = errors.New("sm2: no peer public key given")
		return
	}
	if keyLen <= 0 {
		err = errors.New("sm2: invalid key length")
		return
	}
	if len(uid) == 0 {
		uid = defaultUID
	}
	if len(peerUID) == 0 {
		peerUID = defaultUID
	}
	ke = &KeyExchange{
		genSignature: genSignature,
		keyLength:    keyLen,
		privateKey:   priv,
		peerPub:      peerPub,
	}
	ke.z, err = CalculateZA(&priv.PublicKey, uid)
	if err != nil {
		return nil, err
	}
	ke.peerZ, err = CalculateZA(peerPub, peerUID)
	if err != nil {
		return nil, err
	}
	return
}

// Destroy zeroizes the session secrets.
func (ke *KeyExchange) Destroy() {
	destroyBytes(ke.z)
	destroyBytes(ke.peerZ)
	destroyBytes(ke.vx)
	destroyBytes(ke.vy)
	if ke.r != nil {
		ke.r.Zeroize()
	}
}

func (ke *KeyExchange) ephemeral(random io.Reader) (err error) {
	r, err := sm2ec.RandomScalar(random)
	if err != nil {
		return
	}
	ke.secret, err = newPublicKey(sm2ec.NewPoint().ScalarBaseMult(r))
	if err != nil {
		return
	}
	ke.r = r
	return
}

// Init draws the initiator's ephemeral key and returns R_A.
func (ke *KeyExchange) Init(random io.Reader) (*PublicKey, error) {
	if err := ke.ephemeral(random); err != nil {
		return nil, err
	}
	return ke.secret, nil
}

// Respond draws the responder's ephemeral key, derives V from R_A and
// returns R_B with the tag S_B when tags are enabled.
func (ke *KeyExchange) Respond(random io.Reader, rA *PublicKey) (*PublicKey, []byte, error) {
	if rA == nil {
		return nil, nil, ErrInvalidPublicKey
	}
	if err := ke.ephemeral(random); err != nil {
		return nil, nil, err
	}
	ke.peerSecret = rA
	if err := ke.mqv(); err != nil {
		return nil, nil, err
	}
	if !ke.genSignature {
		return ke.secret, nil, nil
	}
	return ke.secret, ke.sign(true, 0x02), nil
}

// ConfirmResponder derives U from R_B, checks S_B and returns the shared
// key with the tag S_A for the responder.
func (ke *KeyExchange) ConfirmResponder(rB *PublicKey, sB []byte) ([]byte, []byte, error) {
	if ke.r == nil {
		return nil, nil, errors.New("sm2: key exchange not initialized")
	}
	if rB == nil {
		return nil, nil, ErrInvalidPublicKey
	}
	ke.peerSecret = rB
	if err := ke.mqv(); err != nil {
		return nil, nil, err
	}
	if ke.genSignature {
		expected := ke.sign(false, 0x02)
		if subtle.ConstantTimeCompare(expected, sB) != 1 {
			return nil, nil, ErrKeyConfirmation
		}
	}
	key, err := ke.generateSharedKey(false)
	if err != nil {
		return nil, nil, err
	}
	if !ke.genSignature {
		return key, nil, nil
	}
	return key, ke.sign(false, 0x03), nil
}

// ConfirmInitiator checks S_A and returns the shared key.
func (ke *KeyExchange) ConfirmInitiator(sA []byte) ([]byte, error) {
	if ke.vx == nil {
		return nil, errors.New("sm2: key exchange not responded")
	}
	if ke.genSignature {
		expected := ke.sign(true, 0x03)
		if subtle.ConstantTimeCompare(expected, sA) != 1 {
			return nil, ErrKeyConfirmation
		}
	}
	return ke.generateSharedKey(true)
}

// avf maps an x coordinate to 2^w + (x mod 2^w).
func avf(x []byte) *sm2ec.Scalar {
	t := make([]byte, (avfBits+1)/8)
	copy(t, x[len(x)-len(t):])
	t[0] = t[0]&0x7f | 0x80
	return sm2ec.NewScalar().SetOverflowingBytes(t)
}

// mqv computes V = [d + x̄·r]·(P_peer + [x̄_peer]·R_peer).
func (ke *KeyExchange) mqv() error {
	t := avf(ke.secret.x)
	t.Mul(t, ke.r)
	t.Add(t, ke.privateKey.d)

	x1 := avf(ke.peerSecret.x)
	q := sm2ec.NewPoint().ScalarMult(ke.peerSecret.point, x1)
	q.Add(ke.peerPub.point, q)
	v := sm2ec.NewPoint().ScalarMult(q, t)
	t.Zeroize()
	vx, vy, err := v.Affine()
	if err != nil {
		return errors.New("sm2: key exchange failed, V is infinity point")
	}
	ke.vx, ke.vy = vx, vy
	return nil
}

// sign computes SM3(prefix || yV || SM3(xV || ZA || ZB || x1 || y1 || x2 || y2)),
// where A is the initiator.
func (ke *KeyExchange) sign(isResponder bool, prefix byte) []byte {
	hash := sm3.New()
	hash.Write(ke.vx)
	if isResponder {
		hash.Write(ke.peerZ)
		hash.Write(ke.z)
		hash.Write(ke.peerSecret.x)
		hash.Write(ke.peerSecret.y)
		hash.Write(ke.secret.x)
		hash.Write(ke.secret.y)
	} else {
		hash.Write(ke.z)
		hash.Write(ke.peerZ)
		hash.Write(ke.secret.x)
		hash.Write(ke.secret.y)
		hash.Write(ke.peerSecret.x)
		hash.Write(ke.peerSecret.y)
	}
	buffer := hash.Sum(nil)
	hash = sm3.New()
	hash.Write([]byte{prefix})
	hash.Write(ke.vy)
	hash.Write(buffer)
	return hash.Sum(nil)
}

func (ke *KeyExchange) generateSharedKey(isResponder bool) ([]byte, error) {
	if isResponder {
		return kdf.Derive(sm3.New, ke.keyLength, ke.vx, ke.vy, ke.peerZ, ke.z)
	}
	return kdf.Derive(sm3.New, ke.keyLength, ke.vx, ke.vy, ke.z, ke.peerZ)
}
