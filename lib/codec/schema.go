package codec

import (
	"fmt"
	"reflect"
)

// --------------------------------------------------------------------------
// Schema Declaration
// --------------------------------------------------------------------------

// AccessorKind distinguishes how a member is read and written.
type AccessorKind uint8

const (
	// AccessorField reads and writes an exported struct field by name.
	AccessorField AccessorKind = iota
	// AccessorProperty reads and writes through getter/setter closures.
	AccessorProperty
)

// String returns the string representation of an AccessorKind.
func (k AccessorKind) String() string {
	switch k {
	case AccessorField:
		return "field"
	case AccessorProperty:
		return "property"
	default:
		return "unknown"
	}
}

// ActivationStrategy selects how deserialization obtains an instance to fill.
type ActivationStrategy uint8

const (
	// ActivateNew allocates a fresh zero value of the mapped type.
	ActivateNew ActivationStrategy = iota
	// ActivateConstructor builds the instance through a user constructor
	// that receives all decoded member values as named arguments.
	ActivateConstructor
	// ActivateIndirect obtains a zeroed instance from an external pool or
	// factory hook. The codec never allocates pooled instances itself.
	ActivateIndirect
)

// MemberDecl declares one member participating in serialization. Declaration
// order is ordinal order on the wire and is never reordered; serialize,
// deserialize and get-size all iterate members in this exact order.
type MemberDecl struct {
	// Name is the exported struct field name, or a logical name for
	// property members. Names must be unique within a schema.
	Name string

	// Nullable marks the member as optional. Nullable members must be
	// pointer-typed; an absent (nil) value contributes zero bytes to the
	// wire format and sets the member's bit in the null bit-mask.
	Nullable bool

	// Getter and Setter switch the member to property access. Both must be
	// provided together. The owner argument is a pointer to the mapped
	// struct type; the value is the member's declared type (a pointer for
	// nullable members). A nullable getter may return nil for absent.
	Getter func(owner any) any
	Setter func(owner any, value any)

	// Type is the member's declared type. Required for property members;
	// for field members it is derived from the struct field and must be
	// left nil.
	Type reflect.Type
}

// Schema declares a type's serializable members and activation strategy.
type Schema struct {
	// Members in wire order.
	Members []MemberDecl

	// Activation selects the deserialization instance source. The zero
	// value is ActivateNew.
	Activation ActivationStrategy

	// Construct is required for ActivateConstructor. It receives every
	// decoded member value keyed by member name (nullable members as
	// pointers, nil when absent) and must return a pointer to the mapped
	// struct type.
	Construct func(args map[string]any) any

	// Obtain is required for ActivateIndirect. It must return a zeroed
	// pointer to the mapped struct type, typically from a message pool.
	Obtain func() any
}

// --------------------------------------------------------------------------
// Resolved Schema
// --------------------------------------------------------------------------

// SchemaMember is one validated member of an ObjectSchema.
type SchemaMember struct {
	Name     string
	Ordinal  int
	Kind     AccessorKind
	Nullable bool

	// ValueType is the member's value type with the nullable pointer
	// stripped. This is the type the member's leaf codec is resolved for.
	ValueType reflect.Type

	// BitIndex is the member's bit position in the null bit-mask, -1 for
	// non-nullable members.
	BitIndex int

	fieldIndex []int
	getter     func(owner any) any
	setter     func(owner any, value any)
}

// ObjectSchema is the ordered, immutable description of a mapped type's
// serializable members plus its activation strategy. Built once per type at
// Map time and never mutated afterwards.
type ObjectSchema struct {
	typ           reflect.Type
	members       []SchemaMember
	nullableCount int
	activation    ActivationStrategy
	construct     func(args map[string]any) any
	obtain        func() any
}

// Type returns the mapped struct type.
func (s *ObjectSchema) Type() reflect.Type { return s.typ }

// Members returns the members in wire order. The returned slice must not be
// modified.
func (s *ObjectSchema) Members() []SchemaMember { return s.members }

// NullableCount returns the number of nullable members, which is the
// capacity of the schema's null bit-mask.
func (s *ObjectSchema) NullableCount() int { return s.nullableCount }

// Activation returns the schema's activation strategy.
func (s *ObjectSchema) Activation() ActivationStrategy { return s.activation }

// newObjectSchema validates a declaration against t and resolves member
// accessors. All failures are *SchemaValidationError and happen before any
// function is built or cached.
func newObjectSchema(t reflect.Type, schema Schema) (*ObjectSchema, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, &SchemaValidationError{Type: t, Reason: "mapped type must be a struct type"}
	}
	if len(schema.Members) == 0 {
		return nil, &SchemaValidationError{Type: t, Reason: "schema declares no members"}
	}

	switch schema.Activation {
	case ActivateNew:
		if schema.Construct != nil || schema.Obtain != nil {
			return nil, &SchemaValidationError{Type: t, Reason: "ActivateNew does not take Construct or Obtain hooks"}
		}
	case ActivateConstructor:
		if schema.Construct == nil {
			return nil, &SchemaValidationError{Type: t, Reason: "ActivateConstructor requires a Construct hook"}
		}
	case ActivateIndirect:
		if schema.Obtain == nil {
			return nil, &SchemaValidationError{Type: t, Reason: "ActivateIndirect requires an Obtain hook"}
		}
	default:
		return nil, &SchemaValidationError{Type: t, Reason: fmt.Sprintf("unknown activation strategy %d", schema.Activation)}
	}

	members := make([]SchemaMember, 0, len(schema.Members))
	seen := make(map[string]struct{}, len(schema.Members))
	nullable := 0

	for i, decl := range schema.Members {
		if decl.Name == "" {
			return nil, &SchemaValidationError{Type: t, Reason: fmt.Sprintf("member at ordinal %d has no name", i)}
		}
		if _, dup := seen[decl.Name]; dup {
			return nil, &SchemaValidationError{Type: t, Member: decl.Name, Reason: "declared twice"}
		}
		seen[decl.Name] = struct{}{}

		member, err := resolveMember(t, decl, i)
		if err != nil {
			return nil, err
		}
		if member.Nullable {
			member.BitIndex = nullable
			nullable++
		}
		members = append(members, member)
	}

	return &ObjectSchema{
		typ:           t,
		members:       members,
		nullableCount: nullable,
		activation:    schema.Activation,
		construct:     schema.Construct,
		obtain:        schema.Obtain,
	}, nil
}

// resolveMember validates one declaration and resolves its accessor.
func resolveMember(t reflect.Type, decl MemberDecl, ordinal int) (SchemaMember, error) {
	member := SchemaMember{
		Name:     decl.Name,
		Ordinal:  ordinal,
		Nullable: decl.Nullable,
		BitIndex: -1,
	}

	if decl.Getter != nil || decl.Setter != nil {
		// Property access.
		if decl.Getter == nil || decl.Setter == nil {
			return member, &SchemaValidationError{Type: t, Member: decl.Name, Reason: "property members need both a getter and a setter"}
		}
		if decl.Type == nil {
			return member, &SchemaValidationError{Type: t, Member: decl.Name, Reason: "property members must declare their value type"}
		}
		member.Kind = AccessorProperty
		member.getter = decl.Getter
		member.setter = decl.Setter
		valueType, err := memberValueType(t, decl.Name, decl.Type, decl.Nullable)
		if err != nil {
			return member, err
		}
		member.ValueType = valueType
		return member, nil
	}

	// Field access.
	field, ok := t.FieldByName(decl.Name)
	if !ok {
		return member, &SchemaValidationError{Type: t, Member: decl.Name, Reason: "no such field"}
	}
	if field.PkgPath != "" {
		return member, &SchemaValidationError{Type: t, Member: decl.Name, Reason: "field is unexported and cannot be read or written"}
	}
	if decl.Type != nil && decl.Type != field.Type {
		return member, &SchemaValidationError{Type: t, Member: decl.Name, Reason: fmt.Sprintf("declared type %s does not match field type %s", decl.Type, field.Type)}
	}
	member.Kind = AccessorField
	member.fieldIndex = field.Index
	valueType, err := memberValueType(t, decl.Name, field.Type, decl.Nullable)
	if err != nil {
		return member, err
	}
	member.ValueType = valueType
	return member, nil
}

// memberValueType checks the nullability/pointer pairing and strips the
// nullable pointer. Nullable members must be pointer-typed so absence is
// representable; pointer members must be declared nullable so the wire
// format stays unambiguous.
func memberValueType(t reflect.Type, name string, declared reflect.Type, nullable bool) (reflect.Type, error) {
	if nullable {
		if declared.Kind() != reflect.Ptr {
			return nil, &SchemaValidationError{Type: t, Member: name, Reason: fmt.Sprintf("nullable members must be pointer-typed, got %s", declared)}
		}
		return declared.Elem(), nil
	}
	if declared.Kind() == reflect.Ptr {
		return nil, &SchemaValidationError{Type: t, Member: name, Reason: "pointer members must be declared nullable"}
	}
	return declared, nil
}
