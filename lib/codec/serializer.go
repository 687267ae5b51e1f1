package codec

import (
	"fmt"
	"reflect"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// --------------------------------------------------------------------------
// Struct Serializer Facade
// --------------------------------------------------------------------------

// typeEntry bundles everything built for one mapped type: the validated
// schema, the serialization context and the four generated functions. Built
// exactly once per type, immutable afterwards, lives for the process
// lifetime.
type typeEntry struct {
	schema      *ObjectSchema
	ctx         *serializationContext
	serialize   serializeFunc
	deserialize deserializeFunc
	size        sizeFunc
	sizeFromBuf sizeFromBufferFunc

	// needsAddr is true when the schema has property members, whose getters
	// receive a pointer to the instance.
	needsAddr bool
}

// Options configures a StructSerializer.
type Options struct {
	// Logger used for build failures. Defaults to a no-op logger.
	Logger *zap.Logger

	// Registry of leaf codecs. Defaults to a fresh registry with the
	// built-in codecs. Serializers sharing one registry share generated
	// object codecs.
	Registry *Registry
}

// StructSerializer is the facade over the codec: a type-keyed cache of
// (schema, context, generated functions). The first Map of a type pays the
// one-time build cost; every later operation is direct dispatch into the
// cached functions with no locking.
type StructSerializer struct {
	registry *Registry
	types    *xsync.MapOf[reflect.Type, *typeEntry]
	logger   *zap.Logger
}

var _ IStructSerializer = (*StructSerializer)(nil)

// NewStructSerializer creates a serializer with default options.
func NewStructSerializer() *StructSerializer {
	return NewStructSerializerWithOptions(Options{})
}

// NewStructSerializerWithOptions creates a serializer with the given options.
func NewStructSerializerWithOptions(opts Options) *StructSerializer {
	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StructSerializer{
		registry: registry,
		types:    xsync.NewMapOf[reflect.Type, *typeEntry](),
		logger:   logger,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.IStructSerializer)
// --------------------------------------------------------------------------

func (s *StructSerializer) Map(t reflect.Type, schema Schema) error {
	t = normalizeType(t)
	if t == nil {
		return &SchemaValidationError{Type: t, Reason: "mapped type must not be nil"}
	}

	// Compute guarantees at-most-one build per type: concurrent callers of a
	// yet-unmapped type block until the winning build completes, and a
	// repeated Map for a mapped type is a no-op.
	var buildErr error
	s.types.Compute(t, func(existing *typeEntry, loaded bool) (*typeEntry, bool) {
		if loaded {
			return existing, false
		}
		entry, err := s.build(t, schema)
		if err != nil {
			buildErr = err
			return nil, true // nothing is cached for a failed build
		}
		return entry, false
	})
	return buildErr
}

func (s *StructSerializer) Serialize(value any, buf []byte, offset int) (int, error) {
	rv, err := structValue(value)
	if err != nil {
		return 0, err
	}
	entry, err := s.lookup(rv.Type())
	if err != nil {
		return 0, err
	}
	if entry.needsAddr && !rv.CanAddr() {
		tmp := reflect.New(rv.Type()).Elem()
		tmp.Set(rv)
		rv = tmp
	}
	n, err := entry.serialize(rv, buf, offset)
	if err != nil {
		return 0, err
	}
	metricSerializeCalls.Inc()
	metricSerializedBytes.Add(n)
	return n, nil
}

func (s *StructSerializer) Deserialize(t reflect.Type, buf []byte, offset int) (any, int, error) {
	entry, err := s.lookup(normalizeType(t))
	if err != nil {
		return nil, 0, err
	}
	value, n, err := entry.deserialize(buf, offset)
	if err != nil {
		return nil, 0, err
	}
	metricDeserializeCalls.Inc()
	metricDeserializedBytes.Add(n)
	return value, n, nil
}

func (s *StructSerializer) GetSizeFromValue(value any) (int, error) {
	rv, err := structValue(value)
	if err != nil {
		return 0, err
	}
	entry, err := s.lookup(rv.Type())
	if err != nil {
		return 0, err
	}
	if entry.needsAddr && !rv.CanAddr() {
		tmp := reflect.New(rv.Type()).Elem()
		tmp.Set(rv)
		rv = tmp
	}
	return entry.size(rv)
}

func (s *StructSerializer) GetSizeFromBuffer(t reflect.Type, buf []byte, offset int) (int, error) {
	entry, err := s.lookup(normalizeType(t))
	if err != nil {
		return 0, err
	}
	return entry.sizeFromBuf(buf, offset)
}

func (s *StructSerializer) SupportsType(t reflect.Type) bool {
	t = normalizeType(t)
	if t == nil {
		return false
	}
	_, ok := s.types.Load(t)
	return ok
}

// --------------------------------------------------------------------------
// Build Path
// --------------------------------------------------------------------------

// build validates the schema, resolves the serialization context and runs
// the three builders. On success the new entry is also registered as a leaf
// codec so the mapped type can appear as a member of other schemas.
func (s *StructSerializer) build(t reflect.Type, schema Schema) (*typeEntry, error) {
	objectSchema, err := newObjectSchema(t, schema)
	if err != nil {
		return nil, err
	}
	ctx, err := newSerializationContext(objectSchema, s.registry)
	if err != nil {
		return nil, err
	}

	serialize, err := buildSerialize(objectSchema, ctx)
	if err != nil {
		return nil, s.codeGenFailed(t, err)
	}
	deserialize, err := buildDeserialize(objectSchema, ctx)
	if err != nil {
		return nil, s.codeGenFailed(t, err)
	}
	size, sizeFromBuf, err := buildGetSize(objectSchema, ctx)
	if err != nil {
		return nil, s.codeGenFailed(t, err)
	}

	needsAddr := false
	for i := range objectSchema.members {
		if objectSchema.members[i].Kind == AccessorProperty {
			needsAddr = true
			break
		}
	}

	entry := &typeEntry{
		schema:      objectSchema,
		ctx:         ctx,
		serialize:   serialize,
		deserialize: deserialize,
		size:        size,
		sizeFromBuf: sizeFromBuf,
		needsAddr:   needsAddr,
	}

	s.registry.Register(t, &objectCodec{typ: t, entry: entry})
	metricSchemaBuilds.Inc()
	return entry, nil
}

// codeGenFailed wraps a builder failure, logs it and returns it. Never
// degraded to a fallback path.
func (s *StructSerializer) codeGenFailed(t reflect.Type, err error) error {
	genErr := &CodeGenerationError{Type: t, Err: err}
	s.logger.Error("code generation failed",
		zap.String("type", t.String()),
		zap.Error(err),
	)
	return genErr
}

// lookup returns the entry for a mapped type or *UnsupportedTypeError.
func (s *StructSerializer) lookup(t reflect.Type) (*typeEntry, error) {
	if t == nil {
		return nil, &UnsupportedTypeError{Type: t}
	}
	entry, ok := s.types.Load(t)
	if !ok {
		return nil, &UnsupportedTypeError{Type: t}
	}
	return entry, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// normalizeType strips one pointer level so callers can pass either T or *T.
func normalizeType(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}

// structValue resolves a caller-supplied value (T or non-nil *T) to the
// underlying struct value.
func structValue(value any) (reflect.Value, error) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return reflect.Value{}, fmt.Errorf("codec: value must not be nil")
	}
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return reflect.Value{}, fmt.Errorf("codec: value must not be a nil pointer")
		}
		rv = rv.Elem()
	}
	return rv, nil
}

// --------------------------------------------------------------------------
// Object Codec (composition)
// --------------------------------------------------------------------------

// objectCodec exposes a mapped type's generated functions as a leaf codec.
// From an outer builder's perspective a nested object member is just another
// leaf: laid out inline, with its own leading bit-mask if it has nullable
// members.
type objectCodec struct {
	typ   reflect.Type
	entry *typeEntry
}

var _ IValueCodec = (*objectCodec)(nil)

// value makes v addressable when the nested schema has property members,
// whose getters receive a pointer to the instance.
func (c *objectCodec) value(v reflect.Value) reflect.Value {
	if c.entry.needsAddr && !v.CanAddr() {
		tmp := reflect.New(v.Type()).Elem()
		tmp.Set(v)
		return tmp
	}
	return v
}

func (c *objectCodec) GetSize(v reflect.Value) (int, error) {
	return c.entry.size(c.value(v))
}

func (c *objectCodec) GetSizeFromBuffer(buf []byte, offset int) (int, error) {
	return c.entry.sizeFromBuf(buf, offset)
}

func (c *objectCodec) Serialize(v reflect.Value, buf []byte, offset int) (int, error) {
	return c.entry.serialize(c.value(v), buf, offset)
}

func (c *objectCodec) Deserialize(target reflect.Value, buf []byte, offset int) (int, error) {
	instance, n, err := c.entry.deserialize(buf, offset)
	if err != nil {
		return 0, err
	}
	target.Set(reflect.ValueOf(instance).Elem())
	return n, nil
}
