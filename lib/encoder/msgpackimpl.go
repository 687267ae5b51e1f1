package encoder

import (
	"github.com/vmihailenco/msgpack/v5"
)

// NewMsgpackEncoder creates a new encoder using the MessagePack format
func NewMsgpackEncoder() IEncoder {
	return &msgpackEncoderImpl{}
}

// msgpackEncoderImpl implements the IEncoder interface using MessagePack
type msgpackEncoderImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see encoder.IEncoder)
// --------------------------------------------------------------------------

func (m msgpackEncoderImpl) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (m msgpackEncoderImpl) Unmarshal(b []byte, v any) error {
	return msgpack.Unmarshal(b, v)
}
