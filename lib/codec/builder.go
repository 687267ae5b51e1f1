package codec

import (
	"fmt"
	"reflect"
)

// --------------------------------------------------------------------------
// Generated Function Signatures
// --------------------------------------------------------------------------

// The three builders below walk the same ObjectSchema in the same member
// order and must stay mutually consistent: serialize, get-size and
// deserialize agree byte for byte on every instance. Each builder emits one
// specialized function per type from an ordered list of per-member closures
// resolved once at map time; the generated functions capture no mutable
// state and are safe for concurrent use.

// serializeFunc writes a struct value into buf at offset and returns the
// number of bytes written. v is the struct value (not a pointer).
type serializeFunc func(v reflect.Value, buf []byte, offset int) (int, error)

// deserializeFunc reads an instance from buf at offset and returns the
// populated instance (a pointer to the mapped type) and the bytes consumed.
type deserializeFunc func(buf []byte, offset int) (any, int, error)

// sizeFunc returns the serialized length of a struct value.
type sizeFunc func(v reflect.Value) (int, error)

// sizeFromBufferFunc returns the serialized length of the instance at offset
// by reading only the bit-mask and fixed-size prefixes.
type sizeFromBufferFunc func(buf []byte, offset int) (int, error)

// --------------------------------------------------------------------------
// Member Steps
// --------------------------------------------------------------------------

// memberStep is one member's pre-resolved accessor and codec: the unit the
// builders chain together.
type memberStep struct {
	member *SchemaMember
	codec  IValueCodec

	// get returns the member's declared value (a pointer for nullable
	// members; may be invalid or nil when absent).
	get func(owner reflect.Value) (reflect.Value, error)

	// put decodes the member at offset and assigns it through the member's
	// accessor, returning the bytes consumed.
	put func(owner reflect.Value, buf []byte, offset int) (int, error)

	// readArg decodes the member at offset into a standalone value for
	// named-argument construction (a pointer for nullable members).
	readArg func(buf []byte, offset int) (any, int, error)
}

// buildSteps resolves one step per member. The codec list must line up 1:1
// with the member list; a mismatch means the schema and context went out of
// sync, which is a code generation defect.
func buildSteps(schema *ObjectSchema, ctx *serializationContext) ([]memberStep, error) {
	if len(ctx.codecs) != len(schema.members) {
		return nil, fmt.Errorf("context holds %d codecs for %d members", len(ctx.codecs), len(schema.members))
	}
	steps := make([]memberStep, len(schema.members))
	for i := range schema.members {
		m := &schema.members[i]
		c := ctx.codecs[i]
		if c == nil {
			return nil, fmt.Errorf("member %q has no resolved codec", m.Name)
		}
		steps[i] = memberStep{
			member:  m,
			codec:   c,
			get:     buildGetter(m),
			put:     buildPutter(m, c),
			readArg: buildArgReader(m, c),
		}
	}
	return steps, nil
}

// declaredType is the member's type as held by the owner: a pointer to the
// value type for nullable members.
func declaredType(m *SchemaMember) reflect.Type {
	if m.Nullable {
		return reflect.PtrTo(m.ValueType)
	}
	return m.ValueType
}

func buildGetter(m *SchemaMember) func(owner reflect.Value) (reflect.Value, error) {
	if m.Kind == AccessorField {
		index := m.fieldIndex
		return func(owner reflect.Value) (reflect.Value, error) {
			return owner.FieldByIndex(index), nil
		}
	}

	getter := m.getter
	want := declaredType(m)
	name := m.Name
	nullable := m.Nullable
	return func(owner reflect.Value) (reflect.Value, error) {
		raw := getter(owner.Addr().Interface())
		if raw == nil {
			if nullable {
				return reflect.Zero(want), nil
			}
			return reflect.Value{}, fmt.Errorf("codec: property getter for %q returned nil", name)
		}
		rv := reflect.ValueOf(raw)
		if rv.Type() != want {
			return reflect.Value{}, fmt.Errorf("codec: property getter for %q returned %s, want %s", name, rv.Type(), want)
		}
		return rv, nil
	}
}

func buildPutter(m *SchemaMember, c IValueCodec) func(owner reflect.Value, buf []byte, offset int) (int, error) {
	valueType := m.ValueType

	if m.Kind == AccessorField {
		index := m.fieldIndex
		if !m.Nullable {
			// Decode straight into the field, no intermediate allocation.
			return func(owner reflect.Value, buf []byte, offset int) (int, error) {
				return c.Deserialize(owner.FieldByIndex(index), buf, offset)
			}
		}
		return func(owner reflect.Value, buf []byte, offset int) (int, error) {
			p := reflect.New(valueType)
			n, err := c.Deserialize(p.Elem(), buf, offset)
			if err != nil {
				return 0, err
			}
			owner.FieldByIndex(index).Set(p)
			return n, nil
		}
	}

	setter := m.setter
	nullable := m.Nullable
	return func(owner reflect.Value, buf []byte, offset int) (int, error) {
		p := reflect.New(valueType)
		n, err := c.Deserialize(p.Elem(), buf, offset)
		if err != nil {
			return 0, err
		}
		if nullable {
			setter(owner.Addr().Interface(), p.Interface())
		} else {
			setter(owner.Addr().Interface(), p.Elem().Interface())
		}
		return n, nil
	}
}

func buildArgReader(m *SchemaMember, c IValueCodec) func(buf []byte, offset int) (any, int, error) {
	valueType := m.ValueType
	nullable := m.Nullable
	return func(buf []byte, offset int) (any, int, error) {
		p := reflect.New(valueType)
		n, err := c.Deserialize(p.Elem(), buf, offset)
		if err != nil {
			return nil, 0, err
		}
		if nullable {
			return p.Interface(), n, nil
		}
		return p.Elem().Interface(), n, nil
	}
}

// --------------------------------------------------------------------------
// Serialize Builder
// --------------------------------------------------------------------------

// buildSerialize emits the serialize function. The null bit-mask occupies
// the front of the serialized region but is computed last: the function
// reserves the mask's byte length by advancing the write cursor past it,
// remembers the mask's start offset, writes every present field at the
// advancing cursor (setting mask bits for absent nullable members), and
// finally backfills the completed mask at the remembered offset. Both
// cursors are locals, so concurrent calls never share state.
func buildSerialize(schema *ObjectSchema, ctx *serializationContext) (serializeFunc, error) {
	steps, err := buildSteps(schema, ctx)
	if err != nil {
		return nil, err
	}
	maskCodec := ctx.mask
	maskLen := maskCodec.byteLength()
	capacity := schema.nullableCount

	return func(v reflect.Value, buf []byte, offset int) (int, error) {
		mask := NewNullBitMask(capacity)
		maskStart := offset
		cursor := offset + maskLen

		for i := range steps {
			st := &steps[i]
			fv, err := st.get(v)
			if err != nil {
				return 0, err
			}
			if st.member.Nullable {
				if !fv.IsValid() || fv.IsNil() {
					mask.Set(st.member.BitIndex, true)
					continue
				}
				fv = fv.Elem()
			}
			n, err := st.codec.Serialize(fv, buf, cursor)
			if err != nil {
				return 0, err
			}
			cursor += n
		}

		if _, err := maskCodec.Serialize(reflect.ValueOf(mask), buf, maskStart); err != nil {
			return 0, err
		}
		return cursor - offset, nil
	}, nil
}

// --------------------------------------------------------------------------
// Get-Size Builder
// --------------------------------------------------------------------------

// buildGetSize emits the two size functions. The value variant mirrors
// serialize but only sums lengths; the buffer variant reads the mask and the
// members' fixed-size prefixes. Absent members contribute zero bytes in both.
func buildGetSize(schema *ObjectSchema, ctx *serializationContext) (sizeFunc, sizeFromBufferFunc, error) {
	steps, err := buildSteps(schema, ctx)
	if err != nil {
		return nil, nil, err
	}
	maskCodec := ctx.mask
	maskLen := maskCodec.byteLength()
	capacity := schema.nullableCount

	fromValue := func(v reflect.Value) (int, error) {
		total := maskLen
		for i := range steps {
			st := &steps[i]
			fv, err := st.get(v)
			if err != nil {
				return 0, err
			}
			if st.member.Nullable {
				if !fv.IsValid() || fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			n, err := st.codec.GetSize(fv)
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	}

	fromBuffer := func(buf []byte, offset int) (int, error) {
		mask := NewNullBitMask(capacity)
		n, err := maskCodec.Deserialize(reflect.ValueOf(mask), buf, offset)
		if err != nil {
			return 0, err
		}
		cursor := offset + n
		for i := range steps {
			st := &steps[i]
			if st.member.Nullable && mask.Get(st.member.BitIndex) {
				continue
			}
			n, err := st.codec.GetSizeFromBuffer(buf, cursor)
			if err != nil {
				return 0, err
			}
			cursor += n
		}
		return cursor - offset, nil
	}

	return fromValue, fromBuffer, nil
}

// --------------------------------------------------------------------------
// Deserialize Builder
// --------------------------------------------------------------------------

// buildDeserialize emits the deserialize function: read and decode the
// bit-mask at the front of the buffer, then per member in order either leave
// the member at its default (bit set) or decode at the advancing cursor and
// assign through the member's accessor — or collect named constructor
// arguments when the activation strategy requires construction-time values.
func buildDeserialize(schema *ObjectSchema, ctx *serializationContext) (deserializeFunc, error) {
	steps, err := buildSteps(schema, ctx)
	if err != nil {
		return nil, err
	}
	maskCodec := ctx.mask
	capacity := schema.nullableCount
	ptrType := reflect.PtrTo(schema.typ)

	if schema.activation == ActivateConstructor {
		construct := schema.construct
		return func(buf []byte, offset int) (any, int, error) {
			mask := NewNullBitMask(capacity)
			n, err := maskCodec.Deserialize(reflect.ValueOf(mask), buf, offset)
			if err != nil {
				return nil, 0, err
			}
			cursor := offset + n

			args := make(map[string]any, len(steps))
			for i := range steps {
				st := &steps[i]
				if st.member.Nullable && mask.Get(st.member.BitIndex) {
					args[st.member.Name] = nil
					continue
				}
				arg, n, err := st.readArg(buf, cursor)
				if err != nil {
					return nil, 0, err
				}
				args[st.member.Name] = arg
				cursor += n
			}

			instance := construct(args)
			if err := checkInstance(instance, ptrType, "constructor"); err != nil {
				return nil, 0, err
			}
			return instance, cursor - offset, nil
		}, nil
	}

	activate := func() (any, error) {
		return reflect.New(schema.typ).Interface(), nil
	}
	if schema.activation == ActivateIndirect {
		obtain := schema.obtain
		activate = func() (any, error) {
			instance := obtain()
			if err := checkInstance(instance, ptrType, "pool"); err != nil {
				return nil, err
			}
			return instance, nil
		}
	}

	return func(buf []byte, offset int) (any, int, error) {
		mask := NewNullBitMask(capacity)
		n, err := maskCodec.Deserialize(reflect.ValueOf(mask), buf, offset)
		if err != nil {
			return nil, 0, err
		}
		cursor := offset + n

		instance, err := activate()
		if err != nil {
			return nil, 0, err
		}
		owner := reflect.ValueOf(instance).Elem()

		for i := range steps {
			st := &steps[i]
			if st.member.Nullable && mask.Get(st.member.BitIndex) {
				// Absent: the member stays at its default.
				continue
			}
			n, err := st.put(owner, buf, cursor)
			if err != nil {
				return nil, 0, err
			}
			cursor += n
		}
		return instance, cursor - offset, nil
	}, nil
}

// checkInstance validates an externally supplied instance before it is
// filled. Activation hooks are caller code, so this is checked per call.
func checkInstance(instance any, ptrType reflect.Type, source string) error {
	if instance == nil {
		return fmt.Errorf("codec: %s returned nil instance for %s", source, ptrType.Elem())
	}
	if rt := reflect.TypeOf(instance); rt != ptrType {
		return fmt.Errorf("codec: %s returned %s, want %s", source, rt, ptrType)
	}
	return nil
}
