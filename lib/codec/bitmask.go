package codec

import (
	"fmt"
	"reflect"
)

// --------------------------------------------------------------------------
// NullBitMask
// --------------------------------------------------------------------------

// NullBitMask is a fixed-capacity packed bit vector recording which nullable
// members of an instance are absent. A set bit means the member is absent and
// contributes zero bytes to the wire format. Masks are created fresh per
// serialize/deserialize call and never shared.
type NullBitMask struct {
	capacity int
	bits     []byte
}

// NewNullBitMask creates a mask for the given number of nullable members.
// A capacity of zero yields a mask with a byte length of zero.
func NewNullBitMask(capacity int) *NullBitMask {
	if capacity < 0 {
		panic(fmt.Sprintf("codec: negative bit-mask capacity %d", capacity))
	}
	return &NullBitMask{
		capacity: capacity,
		bits:     make([]byte, bitMaskByteLength(capacity)),
	}
}

// Capacity returns the number of bits the mask holds.
func (m *NullBitMask) Capacity() int { return m.capacity }

// ByteLength returns the serialized length of the mask: ceil(capacity/8).
func (m *NullBitMask) ByteLength() int { return len(m.bits) }

// Set sets or clears the bit at index.
func (m *NullBitMask) Set(index int, value bool) {
	m.check(index)
	if value {
		m.bits[index/8] |= 1 << (index % 8)
	} else {
		m.bits[index/8] &^= 1 << (index % 8)
	}
}

// Get returns the bit at index.
func (m *NullBitMask) Get(index int) bool {
	m.check(index)
	return m.bits[index/8]&(1<<(index%8)) != 0
}

// check panics on out-of-range indexes. Indexes are assigned by the builders
// at map time, so a bad index is a programming defect.
func (m *NullBitMask) check(index int) {
	if index < 0 || index >= m.capacity {
		panic(fmt.Sprintf("codec: bit-mask index %d out of range [0,%d)", index, m.capacity))
	}
}

func bitMaskByteLength(capacity int) int {
	return (capacity + 7) / 8
}

// --------------------------------------------------------------------------
// Bit-Mask Codec
// --------------------------------------------------------------------------

// bitMaskCodec serializes NullBitMask values of one fixed capacity. One
// instance is created per schema and shared by the generated functions, so
// the builders treat the mask exactly like any other leaf value.
type bitMaskCodec struct {
	capacity int
}

var _ IValueCodec = (*bitMaskCodec)(nil)

func (c *bitMaskCodec) byteLength() int { return bitMaskByteLength(c.capacity) }

func (c *bitMaskCodec) GetSize(reflect.Value) (int, error) {
	return c.byteLength(), nil
}

func (c *bitMaskCodec) GetSizeFromBuffer(buf []byte, offset int) (int, error) {
	if offset+c.byteLength() > len(buf) {
		return 0, fmt.Errorf("codec: buffer too short for %d byte bit-mask at offset %d", c.byteLength(), offset)
	}
	return c.byteLength(), nil
}

func (c *bitMaskCodec) Serialize(v reflect.Value, buf []byte, offset int) (int, error) {
	mask, ok := v.Interface().(*NullBitMask)
	if !ok || mask.ByteLength() != c.byteLength() {
		return 0, fmt.Errorf("codec: value is not a bit-mask of capacity %d", c.capacity)
	}
	if offset+c.byteLength() > len(buf) {
		return 0, fmt.Errorf("codec: buffer too short for %d byte bit-mask at offset %d", c.byteLength(), offset)
	}
	copy(buf[offset:offset+c.byteLength()], mask.bits)
	return c.byteLength(), nil
}

func (c *bitMaskCodec) Deserialize(target reflect.Value, buf []byte, offset int) (int, error) {
	mask, ok := target.Interface().(*NullBitMask)
	if !ok || mask.ByteLength() != c.byteLength() {
		return 0, fmt.Errorf("codec: target is not a bit-mask of capacity %d", c.capacity)
	}
	if offset+c.byteLength() > len(buf) {
		return 0, fmt.Errorf("codec: buffer too short for %d byte bit-mask at offset %d", c.byteLength(), offset)
	}
	copy(mask.bits, buf[offset:offset+c.byteLength()])
	return c.byteLength(), nil
}
