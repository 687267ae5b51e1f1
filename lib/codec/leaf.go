package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
)

// Built-in leaf codecs for the fixed-width scalar types, strings and byte
// slices. All multi-byte values use little-endian byte order. Strings and
// byte slices carry a uint32 little-endian length prefix.

// --------------------------------------------------------------------------
// Fixed-Width Scalars
// --------------------------------------------------------------------------

// fixedCodec handles one fixed-width scalar kind. The write/read functions
// receive a slice of exactly width bytes.
type fixedCodec struct {
	width int
	write func(b []byte, v reflect.Value)
	read  func(target reflect.Value, b []byte)
}

var _ IValueCodec = (*fixedCodec)(nil)

func (c *fixedCodec) GetSize(reflect.Value) (int, error) {
	return c.width, nil
}

// GetSizeFromBuffer reads nothing: the width is a property of the type.
func (c *fixedCodec) GetSizeFromBuffer([]byte, int) (int, error) {
	return c.width, nil
}

func (c *fixedCodec) Serialize(v reflect.Value, buf []byte, offset int) (int, error) {
	if offset+c.width > len(buf) {
		return 0, fmt.Errorf("codec: buffer too short for %d byte value at offset %d", c.width, offset)
	}
	c.write(buf[offset:offset+c.width], v)
	return c.width, nil
}

func (c *fixedCodec) Deserialize(target reflect.Value, buf []byte, offset int) (int, error) {
	if offset+c.width > len(buf) {
		return 0, fmt.Errorf("codec: buffer too short for %d byte value at offset %d", c.width, offset)
	}
	c.read(target, buf[offset:offset+c.width])
	return c.width, nil
}

var (
	boolCodec = &fixedCodec{
		width: 1,
		write: func(b []byte, v reflect.Value) {
			if v.Bool() {
				b[0] = 1
			} else {
				b[0] = 0
			}
		},
		read: func(t reflect.Value, b []byte) { t.SetBool(b[0] != 0) },
	}

	int8Codec = &fixedCodec{
		width: 1,
		write: func(b []byte, v reflect.Value) { b[0] = byte(v.Int()) },
		read:  func(t reflect.Value, b []byte) { t.SetInt(int64(int8(b[0]))) },
	}

	int16Codec = &fixedCodec{
		width: 2,
		write: func(b []byte, v reflect.Value) { binary.LittleEndian.PutUint16(b, uint16(v.Int())) },
		read:  func(t reflect.Value, b []byte) { t.SetInt(int64(int16(binary.LittleEndian.Uint16(b)))) },
	}

	int32Codec = &fixedCodec{
		width: 4,
		write: func(b []byte, v reflect.Value) { binary.LittleEndian.PutUint32(b, uint32(v.Int())) },
		read:  func(t reflect.Value, b []byte) { t.SetInt(int64(int32(binary.LittleEndian.Uint32(b)))) },
	}

	int64Codec = &fixedCodec{
		width: 8,
		write: func(b []byte, v reflect.Value) { binary.LittleEndian.PutUint64(b, uint64(v.Int())) },
		read:  func(t reflect.Value, b []byte) { t.SetInt(int64(binary.LittleEndian.Uint64(b))) },
	}

	uint8Codec = &fixedCodec{
		width: 1,
		write: func(b []byte, v reflect.Value) { b[0] = byte(v.Uint()) },
		read:  func(t reflect.Value, b []byte) { t.SetUint(uint64(b[0])) },
	}

	uint16Codec = &fixedCodec{
		width: 2,
		write: func(b []byte, v reflect.Value) { binary.LittleEndian.PutUint16(b, uint16(v.Uint())) },
		read:  func(t reflect.Value, b []byte) { t.SetUint(uint64(binary.LittleEndian.Uint16(b))) },
	}

	uint32Codec = &fixedCodec{
		width: 4,
		write: func(b []byte, v reflect.Value) { binary.LittleEndian.PutUint32(b, uint32(v.Uint())) },
		read:  func(t reflect.Value, b []byte) { t.SetUint(uint64(binary.LittleEndian.Uint32(b))) },
	}

	uint64Codec = &fixedCodec{
		width: 8,
		write: func(b []byte, v reflect.Value) { binary.LittleEndian.PutUint64(b, v.Uint()) },
		read:  func(t reflect.Value, b []byte) { t.SetUint(binary.LittleEndian.Uint64(b)) },
	}

	float32Codec = &fixedCodec{
		width: 4,
		write: func(b []byte, v reflect.Value) {
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v.Float())))
		},
		read: func(t reflect.Value, b []byte) {
			t.SetFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(b))))
		},
	}

	float64Codec = &fixedCodec{
		width: 8,
		write: func(b []byte, v reflect.Value) {
			binary.LittleEndian.PutUint64(b, math.Float64bits(v.Float()))
		},
		read: func(t reflect.Value, b []byte) {
			t.SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(b)))
		},
	}
)

// --------------------------------------------------------------------------
// Length-Prefixed Values
// --------------------------------------------------------------------------

const lengthPrefixWidth = 4

// readLengthPrefix decodes the uint32 little-endian length prefix at offset.
func readLengthPrefix(buf []byte, offset int) (int, error) {
	if offset+lengthPrefixWidth > len(buf) {
		return 0, fmt.Errorf("codec: buffer too short for length prefix at offset %d", offset)
	}
	return int(binary.LittleEndian.Uint32(buf[offset : offset+lengthPrefixWidth])), nil
}

// stringLeafCodec encodes a string as a length prefix followed by raw bytes.
type stringLeafCodec struct{}

var _ IValueCodec = (*stringLeafCodec)(nil)

func (stringLeafCodec) GetSize(v reflect.Value) (int, error) {
	return lengthPrefixWidth + v.Len(), nil
}

func (stringLeafCodec) GetSizeFromBuffer(buf []byte, offset int) (int, error) {
	n, err := readLengthPrefix(buf, offset)
	if err != nil {
		return 0, err
	}
	return lengthPrefixWidth + n, nil
}

func (stringLeafCodec) Serialize(v reflect.Value, buf []byte, offset int) (int, error) {
	s := v.String()
	if offset+lengthPrefixWidth+len(s) > len(buf) {
		return 0, fmt.Errorf("codec: buffer too short for %d byte string at offset %d", len(s), offset)
	}
	binary.LittleEndian.PutUint32(buf[offset:offset+lengthPrefixWidth], uint32(len(s)))
	copy(buf[offset+lengthPrefixWidth:], s)
	return lengthPrefixWidth + len(s), nil
}

func (stringLeafCodec) Deserialize(target reflect.Value, buf []byte, offset int) (int, error) {
	n, err := readLengthPrefix(buf, offset)
	if err != nil {
		return 0, err
	}
	start := offset + lengthPrefixWidth
	if start+n > len(buf) {
		return 0, fmt.Errorf("codec: buffer too short for %d byte string at offset %d", n, offset)
	}
	target.SetString(string(buf[start : start+n]))
	return lengthPrefixWidth + n, nil
}

// bytesLeafCodec encodes a byte slice as a length prefix followed by the raw
// bytes. Deserialize always allocates so the decoded value does not alias the
// input buffer.
type bytesLeafCodec struct{}

var _ IValueCodec = (*bytesLeafCodec)(nil)

func (bytesLeafCodec) GetSize(v reflect.Value) (int, error) {
	return lengthPrefixWidth + v.Len(), nil
}

func (bytesLeafCodec) GetSizeFromBuffer(buf []byte, offset int) (int, error) {
	n, err := readLengthPrefix(buf, offset)
	if err != nil {
		return 0, err
	}
	return lengthPrefixWidth + n, nil
}

func (bytesLeafCodec) Serialize(v reflect.Value, buf []byte, offset int) (int, error) {
	n := v.Len()
	if offset+lengthPrefixWidth+n > len(buf) {
		return 0, fmt.Errorf("codec: buffer too short for %d byte slice at offset %d", n, offset)
	}
	binary.LittleEndian.PutUint32(buf[offset:offset+lengthPrefixWidth], uint32(n))
	reflect.Copy(reflect.ValueOf(buf[offset+lengthPrefixWidth:offset+lengthPrefixWidth+n]), v)
	return lengthPrefixWidth + n, nil
}

func (bytesLeafCodec) Deserialize(target reflect.Value, buf []byte, offset int) (int, error) {
	n, err := readLengthPrefix(buf, offset)
	if err != nil {
		return 0, err
	}
	start := offset + lengthPrefixWidth
	if start+n > len(buf) {
		return 0, fmt.Errorf("codec: buffer too short for %d byte slice at offset %d", n, offset)
	}
	b := make([]byte, n)
	copy(b, buf[start:start+n])
	target.SetBytes(b)
	return lengthPrefixWidth + n, nil
}
