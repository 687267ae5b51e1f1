package encoder

import (
	"encoding/json"
)

// NewJSONEncoder creates a new encoder using json encoding
func NewJSONEncoder() IEncoder {
	return &jsonEncoderImpl{}
}

// jsonEncoderImpl implements the IEncoder interface using json encoding
type jsonEncoderImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see encoder.IEncoder)
// --------------------------------------------------------------------------

func (j jsonEncoderImpl) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (j jsonEncoderImpl) Unmarshal(b []byte, v any) error {
	return json.Unmarshal(b, v)
}
