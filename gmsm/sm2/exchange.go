package sm2

import (
	"github.com/fxamacker/cbor/v2"
)

// ExchangeMessage carries one key exchange step between the parties: an
// ephemeral point and, when confirmation is on, the sender's tag.
type ExchangeMessage struct {
	Ephemeral []byte `cbor:"1,keyasint"`
	Tag       []byte `cbor:"2,keyasint,omitempty"`
}

func NewExchangeMessage(ephemeral *PublicKey, tag []byte) *ExchangeMessage {
	msg := &ExchangeMessage{Tag: tag}
	if ephemeral != nil {
		msg.Ephemeral = ephemeral.Bytes()
	}
	return msg
}

// EphemeralKey decodes and validates the carried point.
func (msg *ExchangeMessage) EphemeralKey() (*PublicKey, error) {
	return NewPublicKey(msg.Ephemeral)
}

func (msg *ExchangeMessage) MarshalBinary() ([]byte, error) {
	return cbor.Marshal((*exchangeMessageWire)(msg))
}

func (msg *ExchangeMessage) UnmarshalBinary(data []byte) error {
	var decoded exchangeMessageWire
	if err := cbor.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*msg = ExchangeMessage(decoded)
	return nil
}

// exchangeMessageWire has the same layout without the methods; cbor honours
// encoding.BinaryMarshaler and would otherwise recurse.
type exchangeMessageWire ExchangeMessage
