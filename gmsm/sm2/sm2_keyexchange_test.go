package sm2_test

import (
	"crypto/rand"
	"testing"

	"github.com/aacfactory/afsm2/gmsm/sm2"
	"github.com/aacfactory/afsm2/gmsm/sm2/sm2ec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	aliceUID = "ALICE123@YAHOO.COM"
	billUID  = "BILL456@YAHOO.COM"
	billKey  = "7D2B2391F9633469156F700F8B00D9C85EB6B5327B68684483742EC4AC43043D"
	aliceR   = "83A2C9C8B96E5AF70BD480B472409A9A327257F1EBB73F5B073354B248668563"
	billR    = "33FE21940342161C55619C4A0C060293D543C80AF19748CE176D83477DE71C80"
)

func exchangePair(t *testing.T, keyLen int, confirm bool) (initiator, responder *sm2.KeyExchange) {
	t.Helper()
	alice := katKey(t)
	bill, err := sm2.ParsePrivateKeyHex(billKey)
	require.NoError(t, err)
	initiator, err = sm2.NewKeyExchange(alice, &bill.PublicKey, []byte(aliceUID), []byte(billUID), keyLen, confirm)
	require.NoError(t, err)
	responder, err = sm2.NewKeyExchange(bill, &alice.PublicKey, []byte(billUID), []byte(aliceUID), keyLen, confirm)
	require.NoError(t, err)
	return
}

func TestKeyExchangeKnownAnswer(t *testing.T) {
	alice := katKey(t)
	za, err := sm2.CalculateZA(&alice.PublicKey, []byte(aliceUID))
	require.NoError(t, err)
	assert.Equal(t, "26db4bc1839bd22e97e1dab667ec5e0a730d5e16521398b4435c576a93afd7ed", hexString(za))

	initiator, responder := exchangePair(t, 16, true)
	defer initiator.Destroy()
	defer responder.Destroy()

	rA, err := initiator.Init(fixedReader(t, aliceR))
	require.NoError(t, err)
	rB, sB, err := responder.Respond(fixedReader(t, billR), rA)
	require.NoError(t, err)
	assert.Equal(t, "762e401daa8862a2eac566f6b71f2c876bef0b1c28ed5c90a228eabce5f4daa6", hexString(sB))

	keyA, sA, err := initiator.ConfirmResponder(rB, sB)
	require.NoError(t, err)
	assert.Equal(t, "7d6154b07567fed8e900d1f93e5769bd2af2c19e60b452abf2cd32926d95c13f", hexString(sA))
	assert.Equal(t, "0c3dbeaca5cdf6daeb5bedfdbdce60f6", hexString(keyA))

	keyB, err := responder.ConfirmInitiator(sA)
	require.NoError(t, err)
	assert.Equal(t, keyA, keyB)
}

func TestKeyExchangeWithoutConfirmation(t *testing.T) {
	initiator, responder := exchangePair(t, 48, false)
	rA, err := initiator.Init(rand.Reader)
	require.NoError(t, err)
	rB, sB, err := responder.Respond(rand.Reader, rA)
	require.NoError(t, err)
	assert.Nil(t, sB)
	keyA, sA, err := initiator.ConfirmResponder(rB, nil)
	require.NoError(t, err)
	assert.Nil(t, sA)
	keyB, err := responder.ConfirmInitiator(nil)
	require.NoError(t, err)
	assert.Len(t, keyA, 48)
	assert.Equal(t, keyA, keyB)
}

func TestKeyExchangeTamperedEphemeral(t *testing.T) {
	initiator, responder := exchangePair(t, 16, true)
	rA, err := initiator.Init(rand.Reader)
	require.NoError(t, err)

	shifted := sm2ec.NewPoint().Add(rA.Point(), sm2ec.NewGenerator())
	forged, err := sm2.NewPublicKey(shifted.Bytes())
	require.NoError(t, err)

	rB, sB, err := responder.Respond(rand.Reader, forged)
	require.NoError(t, err)
	_, _, err = initiator.ConfirmResponder(rB, sB)
	assert.ErrorIs(t, err, sm2.ErrKeyConfirmation)
}

func TestKeyExchangeBadInitiatorTag(t *testing.T) {
	initiator, responder := exchangePair(t, 16, true)
	rA, err := initiator.Init(rand.Reader)
	require.NoError(t, err)
	_, _, err = responder.Respond(rand.Reader, rA)
	require.NoError(t, err)

	_, err = responder.ConfirmInitiator(nil)
	assert.ErrorIs(t, err, sm2.ErrKeyConfirmation)
	forged := make([]byte, 32)
	_, _ = rand.Read(forged)
	_, err = responder.ConfirmInitiator(forged)
	assert.ErrorIs(t, err, sm2.ErrKeyConfirmation)
}

func TestKeyExchangeMisuse(t *testing.T) {
	alice := katKey(t)
	_, err := sm2.NewKeyExchange(alice, &alice.PublicKey, nil, nil, 0, true)
	assert.Error(t, err)
	_, err = sm2.NewKeyExchange(nil, &alice.PublicKey, nil, nil, 16, true)
	assert.ErrorIs(t, err, sm2.ErrInvalidPrivateKey)
	_, err = sm2.NewKeyExchange(alice, nil, nil, nil, 16, true)
	assert.Error(t, err)
	_, err = sm2.NewKeyExchange(alice, &alice.PublicKey, make([]byte, 0x2000), nil, 16, true)
	assert.ErrorIs(t, err, sm2.ErrUIDTooLong)

	initiator, responder := exchangePair(t, 16, true)
	_, _, err = initiator.ConfirmResponder(&alice.PublicKey, nil)
	assert.Error(t, err)
	_, err = responder.ConfirmInitiator(nil)
	assert.Error(t, err)
	_, _, err = responder.Respond(rand.Reader, nil)
	assert.ErrorIs(t, err, sm2.ErrInvalidPublicKey)
}

func TestExchangeMessage(t *testing.T) {
	initiator, responder := exchangePair(t, 32, true)
	rA, err := initiator.Init(nil)
	require.NoError(t, err)

	first, err := sm2.NewExchangeMessage(rA, nil).MarshalBinary()
	require.NoError(t, err)
	var received sm2.ExchangeMessage
	require.NoError(t, received.UnmarshalBinary(first))
	assert.Empty(t, received.Tag)
	peerEphemeral, err := received.EphemeralKey()
	require.NoError(t, err)
	assert.True(t, rA.Equal(peerEphemeral))

	rB, sB, err := responder.Respond(nil, peerEphemeral)
	require.NoError(t, err)
	second, err := sm2.NewExchangeMessage(rB, sB).MarshalBinary()
	require.NoError(t, err)
	var reply sm2.ExchangeMessage
	require.NoError(t, reply.UnmarshalBinary(second))
	assert.Equal(t, sB, reply.Tag)
	replyEphemeral, err := reply.EphemeralKey()
	require.NoError(t, err)

	keyA, sA, err := initiator.ConfirmResponder(replyEphemeral, reply.Tag)
	require.NoError(t, err)
	keyB, err := responder.ConfirmInitiator(sA)
	require.NoError(t, err)
	assert.Equal(t, keyA, keyB)

	assert.Error(t, new(sm2.ExchangeMessage).UnmarshalBinary([]byte{0xff, 0x00}))
	_, err = new(sm2.ExchangeMessage).EphemeralKey()
	assert.ErrorIs(t, err, sm2.ErrInvalidPublicKey)
}
