package codec

import (
	"bytes"
	"errors"
	"reflect"
	"sync"
	"testing"
)

// --------------------------------------------------------------------------
// Test Message Types
// --------------------------------------------------------------------------

type scenarioMsg struct {
	A int32
	B *int32
}

type position struct {
	X float32
	Y float32
}

type playerState struct {
	ID     int32
	Name   string
	Health uint16
	Pos    position
	Buff   *int32
	Tag    *string
}

func mustMap(t *testing.T, s IStructSerializer, typ reflect.Type, schema Schema) {
	t.Helper()
	if err := s.Map(typ, schema); err != nil {
		t.Fatalf("Map(%s) failed: %v", typ, err)
	}
}

func scenarioSerializer(t *testing.T) *StructSerializer {
	t.Helper()
	s := NewStructSerializer()
	mustMap(t, s, reflect.TypeOf(scenarioMsg{}), Schema{
		Members: []MemberDecl{
			{Name: "A"},
			{Name: "B", Nullable: true},
		},
	})
	return s
}

func playerSerializer(t *testing.T) *StructSerializer {
	t.Helper()
	s := NewStructSerializer()
	mustMap(t, s, reflect.TypeOf(position{}), Schema{
		Members: []MemberDecl{{Name: "X"}, {Name: "Y"}},
	})
	mustMap(t, s, reflect.TypeOf(playerState{}), Schema{
		Members: []MemberDecl{
			{Name: "ID"},
			{Name: "Name"},
			{Name: "Health"},
			{Name: "Pos"},
			{Name: "Buff", Nullable: true},
			{Name: "Tag", Nullable: true},
		},
	})
	return s
}

func int32p(v int32) *int32    { return &v }
func stringp(v string) *string { return &v }

// --------------------------------------------------------------------------
// Wire Layout
// --------------------------------------------------------------------------

// TestScenarioWireLayout pins the exact bytes for the two reference
// instances: {a=5, b=nil} is the mask byte plus four bytes of a; {a=5, b=7}
// adds four bytes of b with a cleared mask.
func TestScenarioWireLayout(t *testing.T) {
	s := scenarioSerializer(t)
	msgType := reflect.TypeOf(scenarioMsg{})

	cases := []struct {
		name string
		msg  scenarioMsg
		want []byte
	}{
		{
			name: "nullable absent",
			msg:  scenarioMsg{A: 5},
			want: []byte{0b00000001, 5, 0, 0, 0},
		},
		{
			name: "nullable present",
			msg:  scenarioMsg{A: 5, B: int32p(7)},
			want: []byte{0b00000000, 5, 0, 0, 0, 7, 0, 0, 0},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			size, err := s.GetSizeFromValue(c.msg)
			if err != nil {
				t.Fatalf("GetSizeFromValue failed: %v", err)
			}
			if size != len(c.want) {
				t.Fatalf("GetSizeFromValue = %d, want %d", size, len(c.want))
			}

			buf := make([]byte, size)
			n, err := s.Serialize(c.msg, buf, 0)
			if err != nil {
				t.Fatalf("Serialize failed: %v", err)
			}
			if n != size {
				t.Fatalf("Serialize wrote %d bytes, want %d", n, size)
			}
			if !bytes.Equal(buf, c.want) {
				t.Fatalf("wire bytes = %v, want %v", buf, c.want)
			}

			fromBuf, err := s.GetSizeFromBuffer(msgType, buf, 0)
			if err != nil {
				t.Fatalf("GetSizeFromBuffer failed: %v", err)
			}
			if fromBuf != size {
				t.Fatalf("GetSizeFromBuffer = %d, want %d", fromBuf, size)
			}
		})
	}
}

// TestAbsentDistinctFromZero verifies a present zero value is written as
// bytes with a cleared mask bit, distinguishable from an absent value.
func TestAbsentDistinctFromZero(t *testing.T) {
	s := scenarioSerializer(t)
	msgType := reflect.TypeOf(scenarioMsg{})

	absent := scenarioMsg{A: 5}
	zero := scenarioMsg{A: 5, B: int32p(0)}

	absentBuf := serializeHelper(t, s, absent)
	zeroBuf := serializeHelper(t, s, zero)

	if len(absentBuf) != 5 {
		t.Errorf("absent instance serialized to %d bytes, want 5 (mask only plus a)", len(absentBuf))
	}
	if len(zeroBuf) != 9 {
		t.Errorf("present-zero instance serialized to %d bytes, want 9", len(zeroBuf))
	}
	if absentBuf[0]&1 == 0 {
		t.Error("absent instance should set the mask bit")
	}
	if zeroBuf[0]&1 != 0 {
		t.Error("present-zero instance should clear the mask bit")
	}

	decoded, _, err := s.Deserialize(msgType, zeroBuf, 0)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	got := decoded.(*scenarioMsg)
	if got.B == nil || *got.B != 0 {
		t.Error("present zero decoded as absent")
	}

	decoded, _, err = s.Deserialize(msgType, absentBuf, 0)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	got = decoded.(*scenarioMsg)
	if got.B != nil {
		t.Error("absent value decoded as present")
	}
}

func serializeHelper(t *testing.T, s IStructSerializer, value any) []byte {
	t.Helper()
	size, err := s.GetSizeFromValue(value)
	if err != nil {
		t.Fatalf("GetSizeFromValue failed: %v", err)
	}
	buf := make([]byte, size)
	n, err := s.Serialize(value, buf, 0)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if n != size {
		t.Fatalf("Serialize wrote %d bytes, GetSizeFromValue said %d", n, size)
	}
	return buf
}

// --------------------------------------------------------------------------
// Round Trip & Size Consistency
// --------------------------------------------------------------------------

// TestRoundTrip verifies deserialize(serialize(v)) == v field by field,
// including the all-nullables-absent and all-nullables-present extremes.
func TestRoundTrip(t *testing.T) {
	s := playerSerializer(t)
	playerType := reflect.TypeOf(playerState{})

	cases := []struct {
		name string
		msg  playerState
	}{
		{
			name: "all nullables absent",
			msg:  playerState{ID: 42, Name: "kolrak", Health: 100, Pos: position{X: 1.5, Y: -2.5}},
		},
		{
			name: "all nullables present",
			msg: playerState{
				ID:     -7,
				Name:   "",
				Health: 0,
				Pos:    position{},
				Buff:   int32p(3),
				Tag:    stringp("afk"),
			},
		},
		{
			name: "mixed",
			msg:  playerState{ID: 1, Name: "x", Health: 65535, Pos: position{X: 0.25}, Tag: stringp("")},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf := serializeHelper(t, s, c.msg)

			fromBuf, err := s.GetSizeFromBuffer(playerType, buf, 0)
			if err != nil {
				t.Fatalf("GetSizeFromBuffer failed: %v", err)
			}
			if fromBuf != len(buf) {
				t.Fatalf("GetSizeFromBuffer = %d, want %d", fromBuf, len(buf))
			}

			decoded, consumed, err := s.Deserialize(playerType, buf, 0)
			if err != nil {
				t.Fatalf("Deserialize failed: %v", err)
			}
			if consumed != len(buf) {
				t.Fatalf("Deserialize consumed %d bytes, want %d", consumed, len(buf))
			}
			if !reflect.DeepEqual(decoded, &c.msg) {
				t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", decoded, &c.msg)
			}
		})
	}
}

// TestRoundTripAtOffset verifies the codec honours caller-supplied offsets
// and leaves surrounding bytes untouched.
func TestRoundTripAtOffset(t *testing.T) {
	s := scenarioSerializer(t)
	msg := scenarioMsg{A: 9, B: int32p(11)}

	size, err := s.GetSizeFromValue(msg)
	if err != nil {
		t.Fatalf("GetSizeFromValue failed: %v", err)
	}

	buf := make([]byte, size+8)
	for i := range buf {
		buf[i] = 0xAA
	}
	if _, err := s.Serialize(msg, buf, 4); err != nil {
		t.Fatalf("Serialize at offset failed: %v", err)
	}
	if buf[0] != 0xAA || buf[len(buf)-1] != 0xAA {
		t.Error("Serialize wrote outside its region")
	}

	decoded, n, err := s.Deserialize(reflect.TypeOf(scenarioMsg{}), buf, 4)
	if err != nil {
		t.Fatalf("Deserialize at offset failed: %v", err)
	}
	if n != size {
		t.Errorf("consumed %d bytes, want %d", n, size)
	}
	if !reflect.DeepEqual(decoded, &msg) {
		t.Errorf("round trip at offset mismatch: %+v", decoded)
	}
}

// TestNestedNullableObject verifies a mapped type can itself be a nullable
// member of another schema, laid out inline with its own bit-mask handling.
func TestNestedNullableObject(t *testing.T) {
	type container struct {
		Inner *scenarioMsg
	}

	s := scenarioSerializer(t)
	mustMap(t, s, reflect.TypeOf(container{}), Schema{
		Members: []MemberDecl{{Name: "Inner", Nullable: true}},
	})

	for _, msg := range []container{
		{},
		{Inner: &scenarioMsg{A: 3, B: int32p(4)}},
		{Inner: &scenarioMsg{A: 3}},
	} {
		buf := serializeHelper(t, s, msg)
		decoded, _, err := s.Deserialize(reflect.TypeOf(container{}), buf, 0)
		if err != nil {
			t.Fatalf("Deserialize failed: %v", err)
		}
		if !reflect.DeepEqual(decoded, &msg) {
			t.Errorf("nested round trip mismatch:\ngot  %+v\nwant %+v", decoded, &msg)
		}
	}
}

// --------------------------------------------------------------------------
// Ordinal Stability
// --------------------------------------------------------------------------

// TestOrdinalStability guards against accidental non-determinism: reordering
// declarations changes the wire format deterministically, and buffers
// produced under one order do not round-trip under another.
func TestOrdinalStability(t *testing.T) {
	type pair struct {
		A int32
		B int32
	}
	pairType := reflect.TypeOf(pair{})

	forward := NewStructSerializer()
	mustMap(t, forward, pairType, Schema{
		Members: []MemberDecl{{Name: "A"}, {Name: "B"}},
	})
	reversed := NewStructSerializer()
	mustMap(t, reversed, pairType, Schema{
		Members: []MemberDecl{{Name: "B"}, {Name: "A"}},
	})

	msg := pair{A: 1, B: 2}
	forwardBuf := serializeHelper(t, forward, msg)
	reversedBuf := serializeHelper(t, reversed, msg)

	if bytes.Equal(forwardBuf, reversedBuf) {
		t.Fatal("reordering declarations must change the wire format")
	}

	// Serialization is deterministic for a fixed order
	if !bytes.Equal(forwardBuf, serializeHelper(t, forward, msg)) {
		t.Fatal("serialization is not deterministic")
	}

	// Decoding a buffer produced under the other order yields swapped values
	decoded, _, err := reversed.Deserialize(pairType, forwardBuf, 0)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if got := decoded.(*pair); got.A != 2 || got.B != 1 {
		t.Errorf("cross-order decode = %+v, want swapped values", got)
	}
}

// --------------------------------------------------------------------------
// Accessors & Activation
// --------------------------------------------------------------------------

type counterMsg struct {
	hits  int32
	Label string
}

// TestPropertyAccessors verifies members can be read and written through
// getter/setter closures instead of exported fields.
func TestPropertyAccessors(t *testing.T) {
	s := NewStructSerializer()
	mustMap(t, s, reflect.TypeOf(counterMsg{}), Schema{
		Members: []MemberDecl{
			{
				Name: "Hits",
				Type: reflect.TypeOf(int32(0)),
				Getter: func(owner any) any {
					return owner.(*counterMsg).hits
				},
				Setter: func(owner any, value any) {
					owner.(*counterMsg).hits = value.(int32)
				},
			},
			{Name: "Label"},
		},
	})

	msg := &counterMsg{hits: 12, Label: "ping"}
	buf := serializeHelper(t, s, msg)

	decoded, _, err := s.Deserialize(reflect.TypeOf(counterMsg{}), buf, 0)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if !reflect.DeepEqual(decoded, msg) {
		t.Errorf("property round trip mismatch: got %+v, want %+v", decoded, msg)
	}
}

// TestConstructorActivation verifies deserialization can route decoded
// values through a named-argument constructor instead of member assignment.
func TestConstructorActivation(t *testing.T) {
	s := NewStructSerializer()
	mustMap(t, s, reflect.TypeOf(scenarioMsg{}), Schema{
		Members: []MemberDecl{
			{Name: "A"},
			{Name: "B", Nullable: true},
		},
		Activation: ActivateConstructor,
		Construct: func(args map[string]any) any {
			msg := &scenarioMsg{A: args["A"].(int32)}
			if b, ok := args["B"].(*int32); ok && b != nil {
				msg.B = b
			}
			return msg
		},
	})

	for _, msg := range []scenarioMsg{{A: 8}, {A: 8, B: int32p(15)}} {
		buf := serializeHelper(t, s, msg)
		decoded, _, err := s.Deserialize(reflect.TypeOf(scenarioMsg{}), buf, 0)
		if err != nil {
			t.Fatalf("Deserialize failed: %v", err)
		}
		if !reflect.DeepEqual(decoded, &msg) {
			t.Errorf("constructor round trip mismatch: got %+v, want %+v", decoded, &msg)
		}
	}
}

// TestIndirectActivation verifies deserialization obtains instances from the
// external hook instead of allocating, per the pooling contract.
func TestIndirectActivation(t *testing.T) {
	obtained := 0
	s := NewStructSerializer()
	mustMap(t, s, reflect.TypeOf(scenarioMsg{}), Schema{
		Members: []MemberDecl{
			{Name: "A"},
			{Name: "B", Nullable: true},
		},
		Activation: ActivateIndirect,
		Obtain: func() any {
			obtained++
			return &scenarioMsg{}
		},
	})

	msg := scenarioMsg{A: 21, B: int32p(2)}
	buf := serializeHelper(t, s, msg)

	decoded, _, err := s.Deserialize(reflect.TypeOf(scenarioMsg{}), buf, 0)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if obtained != 1 {
		t.Errorf("obtain hook called %d times, want 1", obtained)
	}
	if !reflect.DeepEqual(decoded, &msg) {
		t.Errorf("indirect round trip mismatch: got %+v, want %+v", decoded, &msg)
	}
}

// --------------------------------------------------------------------------
// Facade Semantics
// --------------------------------------------------------------------------

// TestUnmappedType verifies operations on never-mapped types fail with
// *UnsupportedTypeError at call time.
func TestUnmappedType(t *testing.T) {
	s := NewStructSerializer()
	buf := make([]byte, 16)

	var unsupported *UnsupportedTypeError
	if _, err := s.Serialize(scenarioMsg{}, buf, 0); !errors.As(err, &unsupported) {
		t.Errorf("Serialize error = %v, want *UnsupportedTypeError", err)
	}
	if _, _, err := s.Deserialize(reflect.TypeOf(scenarioMsg{}), buf, 0); !errors.As(err, &unsupported) {
		t.Errorf("Deserialize error = %v, want *UnsupportedTypeError", err)
	}
	if _, err := s.GetSizeFromValue(scenarioMsg{}); !errors.As(err, &unsupported) {
		t.Errorf("GetSizeFromValue error = %v, want *UnsupportedTypeError", err)
	}
	if _, err := s.GetSizeFromBuffer(reflect.TypeOf(scenarioMsg{}), buf, 0); !errors.As(err, &unsupported) {
		t.Errorf("GetSizeFromBuffer error = %v, want *UnsupportedTypeError", err)
	}
	if s.SupportsType(reflect.TypeOf(scenarioMsg{})) {
		t.Error("SupportsType should be false for unmapped types")
	}
}

// TestMapIdempotent verifies a second Map for the same type is a no-op: the
// first schema stays in effect.
func TestMapIdempotent(t *testing.T) {
	type pair struct {
		A int32
		B int32
	}
	pairType := reflect.TypeOf(pair{})

	s := NewStructSerializer()
	mustMap(t, s, pairType, Schema{
		Members: []MemberDecl{{Name: "A"}, {Name: "B"}},
	})
	before := serializeHelper(t, s, pair{A: 1, B: 2})

	// Remapping with a different member order must not change anything.
	mustMap(t, s, pairType, Schema{
		Members: []MemberDecl{{Name: "B"}, {Name: "A"}},
	})
	after := serializeHelper(t, s, pair{A: 1, B: 2})

	if !bytes.Equal(before, after) {
		t.Error("second Map changed the wire format; it must be a no-op")
	}
}

// TestConcurrentFirstUse races many goroutines on Map and the runtime
// operations for a yet-unmapped type. Run with -race.
func TestConcurrentFirstUse(t *testing.T) {
	s := scenarioSerializer(t)
	msgType := reflect.TypeOf(scenarioMsg{})
	schema := Schema{
		Members: []MemberDecl{
			{Name: "A"},
			{Name: "B", Nullable: true},
		},
	}

	type pair struct {
		A int32
		B int32
	}
	pairSchema := Schema{Members: []MemberDecl{{Name: "A"}, {Name: "B"}}}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Map(reflect.TypeOf(pair{}), pairSchema); err != nil {
				t.Errorf("concurrent Map failed: %v", err)
			}
			if err := s.Map(msgType, schema); err != nil {
				t.Errorf("concurrent re-Map failed: %v", err)
			}

			msg := scenarioMsg{A: 5, B: int32p(7)}
			size, err := s.GetSizeFromValue(msg)
			if err != nil {
				t.Errorf("concurrent GetSizeFromValue failed: %v", err)
				return
			}
			buf := make([]byte, size)
			if _, err := s.Serialize(msg, buf, 0); err != nil {
				t.Errorf("concurrent Serialize failed: %v", err)
				return
			}
			decoded, _, err := s.Deserialize(msgType, buf, 0)
			if err != nil {
				t.Errorf("concurrent Deserialize failed: %v", err)
				return
			}
			if !reflect.DeepEqual(decoded, &msg) {
				t.Errorf("concurrent round trip mismatch: %+v", decoded)
			}
		}()
	}
	wg.Wait()

	if !s.SupportsType(reflect.TypeOf(pair{})) {
		t.Error("pair should be mapped after concurrent first use")
	}
}

// TestDeserializeTruncatedBuffer verifies decoding fails cleanly on
// truncated input instead of returning a half-populated instance.
func TestDeserializeTruncatedBuffer(t *testing.T) {
	s := playerSerializer(t)
	msg := playerState{ID: 1, Name: "someone", Health: 50, Tag: stringp("t")}
	buf := serializeHelper(t, s, msg)

	for _, cut := range []int{0, 1, len(buf) / 2, len(buf) - 1} {
		if _, _, err := s.Deserialize(reflect.TypeOf(playerState{}), buf[:cut], 0); err == nil {
			t.Errorf("Deserialize of %d/%d bytes should fail", cut, len(buf))
		}
	}
}
