package testing

import (
	"bytes"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/structwire/structwire/lib/codec"
)

// SerializerFactory is a function that creates a new instance of an
// IStructSerializer implementation
type SerializerFactory func() codec.IStructSerializer

// --------------------------------------------------------------------------
// Shared Fixtures
// --------------------------------------------------------------------------

// Vector is a flat fixture type with fixed-width members only
type Vector struct {
	X float32
	Y float32
	Z float32
}

// PlayerState is a composite fixture type exercising scalars, strings,
// nested objects and nullable members
type PlayerState struct {
	ID     int32
	Name   string
	Health uint16
	Pos    Vector
	Buff   *int32
	Tag    *string
}

// VectorSchema returns the canonical member declarations for Vector
func VectorSchema() codec.Schema {
	return codec.Schema{
		Members: []codec.MemberDecl{
			{Name: "X"}, {Name: "Y"}, {Name: "Z"},
		},
	}
}

// PlayerStateSchema returns the canonical member declarations for PlayerState
func PlayerStateSchema() codec.Schema {
	return codec.Schema{
		Members: []codec.MemberDecl{
			{Name: "ID"},
			{Name: "Name"},
			{Name: "Health"},
			{Name: "Pos"},
			{Name: "Buff", Nullable: true},
			{Name: "Tag", Nullable: true},
		},
	}
}

// MapFixtures registers Vector and PlayerState on the given serializer
func MapFixtures(tb testing.TB, s codec.IStructSerializer) {
	tb.Helper()
	if err := s.Map(reflect.TypeOf(Vector{}), VectorSchema()); err != nil {
		tb.Fatalf("Map(Vector) failed: %v", err)
	}
	if err := s.Map(reflect.TypeOf(PlayerState{}), PlayerStateSchema()); err != nil {
		tb.Fatalf("Map(PlayerState) failed: %v", err)
	}
}

// RunStructSerializerTests runs a comprehensive conformance suite for an
// IStructSerializer implementation.
func RunStructSerializerTests(t *testing.T, name string, factory SerializerFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("RoundTrip", func(t *testing.T) {
			testRoundTrip(t, factory())
		})

		t.Run("SizeConsistency", func(t *testing.T) {
			testSizeConsistency(t, factory())
		})

		t.Run("NullableEncoding", func(t *testing.T) {
			testNullableEncoding(t, factory())
		})

		t.Run("Determinism", func(t *testing.T) {
			testDeterminism(t, factory())
		})

		t.Run("UnmappedType", func(t *testing.T) {
			testUnmappedType(t, factory())
		})

		t.Run("SupportsType", func(t *testing.T) {
			testSupportsType(t, factory())
		})

		t.Run("InvalidSchema", func(t *testing.T) {
			testInvalidSchema(t, factory())
		})

		t.Run("ConcurrentUsage", func(t *testing.T) {
			testConcurrentUsage(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func encode(tb testing.TB, s codec.IStructSerializer, value any) []byte {
	tb.Helper()

	size, err := s.GetSizeFromValue(value)
	if err != nil {
		tb.Fatalf("GetSizeFromValue failed: %v", err)
	}
	buf := make([]byte, size)
	n, err := s.Serialize(value, buf, 0)
	if err != nil {
		tb.Fatalf("Serialize failed: %v", err)
	}
	if n != size {
		tb.Fatalf("Serialize wrote %d bytes, GetSizeFromValue said %d", n, size)
	}
	return buf
}

func fixtureStates() []PlayerState {
	buff := int32(12)
	tag := "afk"
	empty := ""
	return []PlayerState{
		{ID: 1, Name: "alpha", Health: 100, Pos: Vector{X: 1, Y: 2, Z: 3}},
		{ID: -1, Name: "", Health: 0, Pos: Vector{}, Buff: &buff, Tag: &tag},
		{ID: 7, Name: "gamma", Health: 65535, Pos: Vector{Z: -0.5}, Tag: &empty},
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testRoundTrip(t *testing.T, s codec.IStructSerializer) {
	MapFixtures(t, s)
	stateType := reflect.TypeOf(PlayerState{})

	for _, state := range fixtureStates() {
		buf := encode(t, s, state)

		decoded, consumed, err := s.Deserialize(stateType, buf, 0)
		if err != nil {
			t.Fatalf("Deserialize failed: %v", err)
		}
		if consumed != len(buf) {
			t.Errorf("Deserialize consumed %d bytes, want %d", consumed, len(buf))
		}
		if !reflect.DeepEqual(decoded, &state) {
			t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", decoded, &state)
		}
	}
}

func testSizeConsistency(t *testing.T, s codec.IStructSerializer) {
	MapFixtures(t, s)
	stateType := reflect.TypeOf(PlayerState{})

	for _, state := range fixtureStates() {
		buf := encode(t, s, state)

		fromBuf, err := s.GetSizeFromBuffer(stateType, buf, 0)
		if err != nil {
			t.Fatalf("GetSizeFromBuffer failed: %v", err)
		}
		if fromBuf != len(buf) {
			t.Errorf("GetSizeFromBuffer = %d, want %d", fromBuf, len(buf))
		}
	}
}

func testNullableEncoding(t *testing.T, s codec.IStructSerializer) {
	MapFixtures(t, s)

	present := int32(0)
	withZero := PlayerState{ID: 1, Buff: &present}
	without := PlayerState{ID: 1}

	zeroBuf := encode(t, s, withZero)
	absentBuf := encode(t, s, without)

	if len(zeroBuf) == len(absentBuf) {
		t.Error("a present zero must occupy more bytes than an absent value")
	}

	decoded, _, err := s.Deserialize(reflect.TypeOf(PlayerState{}), zeroBuf, 0)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if got := decoded.(*PlayerState); got.Buff == nil || *got.Buff != 0 {
		t.Error("present zero decoded as absent")
	}

	decoded, _, err = s.Deserialize(reflect.TypeOf(PlayerState{}), absentBuf, 0)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if got := decoded.(*PlayerState); got.Buff != nil {
		t.Error("absent value decoded as present")
	}
}

func testDeterminism(t *testing.T, s codec.IStructSerializer) {
	MapFixtures(t, s)

	state := fixtureStates()[0]
	first := encode(t, s, state)
	second := encode(t, s, state)

	if !bytes.Equal(first, second) {
		t.Error("serializing the same value twice must produce identical bytes")
	}
}

func testUnmappedType(t *testing.T, s codec.IStructSerializer) {
	type unknown struct {
		A int32
	}

	buf := make([]byte, 8)
	var unsupported *codec.UnsupportedTypeError

	if _, err := s.Serialize(unknown{}, buf, 0); !errors.As(err, &unsupported) {
		t.Errorf("Serialize error = %v, want *codec.UnsupportedTypeError", err)
	}
	if _, _, err := s.Deserialize(reflect.TypeOf(unknown{}), buf, 0); !errors.As(err, &unsupported) {
		t.Errorf("Deserialize error = %v, want *codec.UnsupportedTypeError", err)
	}
	if _, err := s.GetSizeFromValue(unknown{}); !errors.As(err, &unsupported) {
		t.Errorf("GetSizeFromValue error = %v, want *codec.UnsupportedTypeError", err)
	}
}

func testSupportsType(t *testing.T, s codec.IStructSerializer) {
	vecType := reflect.TypeOf(Vector{})

	if s.SupportsType(vecType) {
		t.Error("SupportsType must be false before Map")
	}
	MapFixtures(t, s)
	if !s.SupportsType(vecType) {
		t.Error("SupportsType must be true after Map")
	}
	if s.SupportsType(reflect.TypeOf(struct{ A int32 }{})) {
		t.Error("SupportsType must be false for unrelated types")
	}
}

func testInvalidSchema(t *testing.T, s codec.IStructSerializer) {
	type badTarget struct {
		A int32
		B *int32
	}
	badType := reflect.TypeOf(badTarget{})

	cases := []struct {
		name   string
		schema codec.Schema
	}{
		{
			name:   "empty members",
			schema: codec.Schema{},
		},
		{
			name: "unknown member",
			schema: codec.Schema{
				Members: []codec.MemberDecl{{Name: "Missing"}},
			},
		},
		{
			name: "pointer member not nullable",
			schema: codec.Schema{
				Members: []codec.MemberDecl{{Name: "B"}},
			},
		},
		{
			name: "nullable member not pointer",
			schema: codec.Schema{
				Members: []codec.MemberDecl{{Name: "A", Nullable: true}},
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var validation *codec.SchemaValidationError
			if err := s.Map(badType, c.schema); !errors.As(err, &validation) {
				t.Errorf("Map error = %v, want *codec.SchemaValidationError", err)
			}
			if s.SupportsType(badType) {
				t.Error("a failed Map must not register the type")
			}
		})
	}
}

func testConcurrentUsage(t *testing.T, s codec.IStructSerializer) {
	MapFixtures(t, s)
	stateType := reflect.TypeOf(PlayerState{})
	states := fixtureStates()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			// Mapping again concurrently must stay a safe no-op
			if err := s.Map(stateType, PlayerStateSchema()); err != nil {
				t.Errorf("concurrent Map failed: %v", err)
				return
			}
			state := states[n%len(states)]

			size, err := s.GetSizeFromValue(state)
			if err != nil {
				t.Errorf("concurrent GetSizeFromValue failed: %v", err)
				return
			}
			buf := make([]byte, size)
			if _, err := s.Serialize(state, buf, 0); err != nil {
				t.Errorf("concurrent Serialize failed: %v", err)
				return
			}
			decoded, _, err := s.Deserialize(stateType, buf, 0)
			if err != nil {
				t.Errorf("concurrent Deserialize failed: %v", err)
				return
			}
			if !reflect.DeepEqual(decoded, &state) {
				t.Errorf("concurrent round trip mismatch: %+v", decoded)
			}
		}(i)
	}
	wg.Wait()
}
