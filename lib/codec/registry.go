package codec

import (
	"reflect"

	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Leaf Codec Registry
// --------------------------------------------------------------------------

// Registry resolves leaf value codecs by runtime type. The fixed-width scalar
// codecs, the string codec and the byte-slice codec are pre-registered by
// kind; exact-type registrations (custom codecs and generated object codecs)
// take precedence over the built-ins.
type Registry struct {
	byType *xsync.MapOf[reflect.Type, IValueCodec]
	byKind [reflect.UnsafePointer + 1]IValueCodec
}

// NewRegistry creates a registry with all built-in leaf codecs registered.
func NewRegistry() *Registry {
	r := &Registry{
		byType: xsync.NewMapOf[reflect.Type, IValueCodec](),
	}
	r.byKind[reflect.Bool] = boolCodec
	r.byKind[reflect.Int8] = int8Codec
	r.byKind[reflect.Int16] = int16Codec
	r.byKind[reflect.Int32] = int32Codec
	r.byKind[reflect.Int64] = int64Codec
	r.byKind[reflect.Uint8] = uint8Codec
	r.byKind[reflect.Uint16] = uint16Codec
	r.byKind[reflect.Uint32] = uint32Codec
	r.byKind[reflect.Uint64] = uint64Codec
	r.byKind[reflect.Float32] = float32Codec
	r.byKind[reflect.Float64] = float64Codec
	r.byKind[reflect.String] = stringLeafCodec{}
	// int and uint are platform-width and deliberately unregistered: the
	// wire format only admits fixed-width scalars.
	return r
}

// Register adds or replaces the codec for an exact type. The struct
// serializer registers every generated object codec here so mapped types can
// appear as members of other schemas.
func (r *Registry) Register(t reflect.Type, c IValueCodec) {
	r.byType.Store(t, c)
}

// Resolve returns the leaf codec for t. Exact-type registrations win; the
// built-in scalar codecs match by kind so named scalar types (e.g.
// `type EntityID int32`) resolve without registration. Byte slices of any
// named type resolve to the byte-slice codec. Fails with
// *UnsupportedTypeError if nothing matches.
func (r *Registry) Resolve(t reflect.Type) (IValueCodec, error) {
	if c, ok := r.byType.Load(t); ok {
		return c, nil
	}
	if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
		return bytesLeafCodec{}, nil
	}
	if int(t.Kind()) < len(r.byKind) {
		if c := r.byKind[t.Kind()]; c != nil {
			return c, nil
		}
	}
	return nil, &UnsupportedTypeError{Type: t}
}
