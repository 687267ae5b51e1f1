package codec

import (
	"fmt"
	"reflect"
)

// --------------------------------------------------------------------------
// Interface Definitions
// --------------------------------------------------------------------------

// IValueCodec is the interface for all leaf value codecs. A leaf codec is a
// stateless encoder/decoder for a single value type. Generated object codecs
// implement IValueCodec too, so an object member inside another object is
// handled by the builders like any scalar.
//
// Contract: for any supported value v, GetSize(v) equals the number of bytes
// Serialize writes for v, and Deserialize(Serialize(v)) yields a value equal
// to v.
type IValueCodec interface {
	// GetSize returns the number of bytes Serialize will write for v.
	GetSize(v reflect.Value) (int, error)

	// GetSizeFromBuffer returns the number of bytes a value of this codec's
	// type occupies in buf starting at offset. It reads at most the value's
	// fixed-size prefix (e.g. a length field), never the full value.
	GetSizeFromBuffer(buf []byte, offset int) (int, error)

	// Serialize writes v into buf starting at offset and returns the number
	// of bytes written. The caller must have sized buf via GetSize.
	Serialize(v reflect.Value, buf []byte, offset int) (int, error)

	// Deserialize reads a value from buf starting at offset into target and
	// returns the number of bytes consumed. target must be addressable.
	Deserialize(target reflect.Value, buf []byte, offset int) (int, error)
}

// IStructSerializer is the public facade of the codec. A type's schema is
// mapped once; all later operations dispatch directly into the functions
// generated at map time.
type IStructSerializer interface {
	// Map registers a schema for t and builds the type's serialize,
	// deserialize and get-size functions. Idempotent: mapping an already
	// mapped type is a no-op. Validation and build failures are fatal for
	// the type and surface immediately.
	Map(t reflect.Type, schema Schema) error

	// Serialize writes value into buf starting at offset. It writes exactly
	// GetSizeFromValue(value) bytes and returns the number written.
	Serialize(value any, buf []byte, offset int) (int, error)

	// Deserialize reads an instance of t from buf starting at offset. It
	// returns the populated instance (a pointer to the mapped struct type)
	// and the number of bytes consumed, which equals
	// GetSizeFromBuffer(t, buf, offset).
	Deserialize(t reflect.Type, buf []byte, offset int) (value any, n int, err error)

	// GetSizeFromValue returns the number of bytes Serialize will write for
	// value.
	GetSizeFromValue(value any) (int, error)

	// GetSizeFromBuffer returns the total serialized length of the instance
	// of t starting at offset, reading only the bit-mask and fixed-size
	// prefixes, without decoding the instance.
	GetSizeFromBuffer(t reflect.Type, buf []byte, offset int) (int, error)

	// SupportsType reports whether a schema has been mapped for t. Safe to
	// call concurrently with Map.
	SupportsType(t reflect.Type) bool
}

// --------------------------------------------------------------------------
// Custom Error Types
// --------------------------------------------------------------------------

// SchemaValidationError reports a schema that declares a missing or
// inaccessible member, a nullability/type mismatch, or a member type with no
// resolvable codec. Raised at Map time; retrying with the same declaration
// fails identically.
type SchemaValidationError struct {
	Type   reflect.Type // the type being mapped
	Member string       // offending member name, empty for type-level faults
	Reason string
}

// Error implements the error interface.
func (e *SchemaValidationError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("codec: invalid schema for %s: member %q: %s", e.Type, e.Member, e.Reason)
	}
	return fmt.Sprintf("codec: invalid schema for %s: %s", e.Type, e.Reason)
}

// UnsupportedTypeError reports an operation on a type that has never been
// mapped, or a member type no leaf codec is registered for.
type UnsupportedTypeError struct {
	Type reflect.Type
}

// Error implements the error interface.
func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("codec: no codec registered for type %s", e.Type)
}

// CodeGenerationError reports that a function builder failed to produce a
// valid function for a type. This is a programming defect, not a user error;
// it is logged and rethrown at Map time and never degraded to a fallback
// path.
type CodeGenerationError struct {
	Type reflect.Type
	Err  error
}

// Error implements the error interface.
func (e *CodeGenerationError) Error() string {
	return fmt.Sprintf("codec: building functions for %s failed: %v", e.Type, e.Err)
}

// Unwrap returns the underlying build failure.
func (e *CodeGenerationError) Unwrap() error { return e.Err }
