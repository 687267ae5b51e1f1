// Package codec implements a schema-driven binary serialization core for
// message structs. A type's serializable members are declared once as an
// ordered list of member descriptors; the package resolves the declaration
// into three specialized functions per type (serialize, deserialize and
// get-size) built from ordered accessor/codec closures, so no schema walk or
// member lookup happens on the hot path.
//
// The package focuses on:
//   - A compact, fixed positional wire format with no per-message framing
//     overhead beyond a leading null bit-mask
//   - Perfect consistency between serialize, deserialize and get-size for
//     every mapped type (a size miscalculation corrupts every subsequent
//     message on the wire)
//   - One-time build cost per type, lock-free dispatch afterwards
//
// Key Components:
//
//   - IValueCodec: Core interface for leaf value codecs. Codecs for the
//     fixed-width scalar types, strings and byte slices are built in;
//     generated object codecs are registered back into the Registry so a
//     struct member inside another struct is handled like any other leaf.
//
//   - Registry: Resolves leaf codecs by runtime type. Exact-type
//     registrations take precedence; built-in scalars match by kind so named
//     types such as `type EntityID int32` resolve without registration.
//
//   - NullBitMask: Packed bit vector recording which nullable members of an
//     instance are absent. Its byte length is ceil(nullableCount/8) and it is
//     placed at the front of every serialized object.
//
//   - Schema / ObjectSchema: The declarative description of a type (ordered
//     members, accessor kinds, nullability, activation strategy) and its
//     validated, immutable resolution.
//
//   - StructSerializer: The public facade. Map a type's schema once, then
//     serialize, deserialize and size values of that type by direct dispatch
//     into the cached generated functions.
//
// Wire Format (per object instance, little-endian, no versioning):
//
//	[ null bit-mask: ceil(nullableMemberCount / 8) bytes ]
//	[ member_0 bytes, if present ]
//	[ member_1 bytes, if present ]
//	...
//
// An absent nullable member contributes zero bytes; its bit in the mask is
// set instead. Nested object members are laid out inline, recursively, with
// their own leading bit-mask if they have nullable members.
//
// Thread Safety:
//
//	Mapping is guarded so that at most one build happens per type; callers
//	racing on a yet-unmapped type block until the build completes. Once
//	built, schemas, contexts and generated functions are immutable and safe
//	for concurrent use without locking: every call only touches its own
//	buffer, offset and target instance.
//
// Usage:
//
//	s := codec.NewStructSerializer()
//	err := s.Map(reflect.TypeOf(PlayerState{}), codec.Schema{
//	    Members: []codec.MemberDecl{
//	        {Name: "ID"},
//	        {Name: "Name"},
//	        {Name: "Health", Nullable: true},
//	    },
//	})
//	// ... once per type, during startup ...
//	size, _ := s.GetSizeFromValue(state)
//	buf := make([]byte, size)
//	_, err = s.Serialize(state, buf, 0)
//	value, _, err := s.Deserialize(reflect.TypeOf(PlayerState{}), buf, 0)
package codec
