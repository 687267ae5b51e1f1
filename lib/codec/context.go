package codec

// serializationContext is the per-type bundle of resolved leaf codecs (one
// per schema member, in member order) plus the schema's bit-mask codec. It
// is built once at map time alongside the generated functions so no codec
// resolution happens on the hot path, and is read-only afterwards: safe to
// share across calls and goroutines.
type serializationContext struct {
	codecs []IValueCodec
	mask   *bitMaskCodec
}

// newSerializationContext resolves one leaf codec per schema member. An
// unresolvable member type is a schema validation failure, surfaced at map
// time before any function for the type exists.
func newSerializationContext(schema *ObjectSchema, registry *Registry) (*serializationContext, error) {
	codecs := make([]IValueCodec, len(schema.members))
	for i := range schema.members {
		m := &schema.members[i]
		c, err := registry.Resolve(m.ValueType)
		if err != nil {
			return nil, &SchemaValidationError{
				Type:   schema.typ,
				Member: m.Name,
				Reason: "no codec resolvable for member type " + m.ValueType.String(),
			}
		}
		codecs[i] = c
	}
	return &serializationContext{
		codecs: codecs,
		mask:   &bitMaskCodec{capacity: schema.nullableCount},
	}, nil
}
