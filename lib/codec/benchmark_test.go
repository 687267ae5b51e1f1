package codec

import (
	"reflect"
	"strings"
	"testing"
)

// benchmarkStates returns a set of instances for targeted benchmarking
func benchmarkStates() map[string]playerState {
	buff := int32(200)
	tag := "benchmark-tag"
	longTag := strings.Repeat("lorem-ipsum-", 32)
	return map[string]playerState{
		"ScalarsOnly": {
			ID:     42,
			Health: 100,
			Pos:    position{X: 1.0, Y: 2.0},
		},
		"ShortString": {
			ID:     42,
			Name:   "p",
			Health: 100,
			Pos:    position{X: 1.0, Y: 2.0},
		},
		"MediumString": {
			ID:     42,
			Name:   "medium-length-player-name-for-testing",
			Health: 100,
			Pos:    position{X: 1.0, Y: 2.0},
		},
		"AllPresent": {
			ID:     42,
			Name:   "complete-player",
			Health: 100,
			Pos:    position{X: 1.0, Y: 2.0},
			Buff:   &buff,
			Tag:    &tag,
		},
		"LargeNullable": {
			ID:   42,
			Name: "player",
			Pos:  position{X: 1.0, Y: 2.0},
			Tag:  &longTag,
		},
	}
}

func benchmarkSerializer(b *testing.B) *StructSerializer {
	b.Helper()
	s := NewStructSerializer()
	if err := s.Map(reflect.TypeOf(position{}), Schema{
		Members: []MemberDecl{{Name: "X"}, {Name: "Y"}},
	}); err != nil {
		b.Fatalf("Map(position) failed: %v", err)
	}
	if err := s.Map(reflect.TypeOf(playerState{}), Schema{
		Members: []MemberDecl{
			{Name: "ID"},
			{Name: "Name"},
			{Name: "Health"},
			{Name: "Pos"},
			{Name: "Buff", Nullable: true},
			{Name: "Tag", Nullable: true},
		},
	}); err != nil {
		b.Fatalf("Map(playerState) failed: %v", err)
	}
	return s
}

// BenchmarkSerialize benchmarks serialization into a pre-sized buffer for
// various instance shapes
func BenchmarkSerialize(b *testing.B) {
	s := benchmarkSerializer(b)

	for name, msg := range benchmarkStates() {
		b.Run(name, func(b *testing.B) {
			size, err := s.GetSizeFromValue(msg)
			if err != nil {
				b.Fatalf("Failed to size: %v", err)
			}
			buf := make([]byte, size)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, err := s.Serialize(msg, buf, 0); err != nil {
					b.Fatalf("Failed to serialize: %v", err)
				}
			}
		})
	}
}

// BenchmarkDeserialize benchmarks deserialization for various instance shapes
func BenchmarkDeserialize(b *testing.B) {
	s := benchmarkSerializer(b)
	playerType := reflect.TypeOf(playerState{})

	// Pre-serialize all instances
	serialized := make(map[string][]byte)
	for name, msg := range benchmarkStates() {
		size, err := s.GetSizeFromValue(msg)
		if err != nil {
			b.Fatalf("Failed to size %s: %v", name, err)
		}
		buf := make([]byte, size)
		if _, err := s.Serialize(msg, buf, 0); err != nil {
			b.Fatalf("Failed to serialize %s: %v", name, err)
		}
		serialized[name] = buf
	}

	for name := range benchmarkStates() {
		b.Run(name, func(b *testing.B) {
			data := serialized[name]
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, _, err := s.Deserialize(playerType, data, 0); err != nil {
					b.Fatalf("Failed to deserialize: %v", err)
				}
			}
		})
	}
}

// BenchmarkGetSize benchmarks wire-size computation from values and from
// serialized buffers
func BenchmarkGetSize(b *testing.B) {
	s := benchmarkSerializer(b)
	playerType := reflect.TypeOf(playerState{})

	for name, msg := range benchmarkStates() {
		b.Run("FromValue_"+name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := s.GetSizeFromValue(msg); err != nil {
					b.Fatalf("Failed to size: %v", err)
				}
			}
		})

		size, err := s.GetSizeFromValue(msg)
		if err != nil {
			b.Fatalf("Failed to size: %v", err)
		}
		buf := make([]byte, size)
		if _, err := s.Serialize(msg, buf, 0); err != nil {
			b.Fatalf("Failed to serialize: %v", err)
		}

		b.Run("FromBuffer_"+name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := s.GetSizeFromBuffer(playerType, buf, 0); err != nil {
					b.Fatalf("Failed to size from buffer: %v", err)
				}
			}
		})
	}
}

// BenchmarkWireSize reports the serialized size for each instance shape as a
// custom metric
func BenchmarkWireSize(b *testing.B) {
	s := benchmarkSerializer(b)

	for name, msg := range benchmarkStates() {
		b.Run(name, func(b *testing.B) {
			size, err := s.GetSizeFromValue(msg)
			if err != nil {
				b.Fatalf("Failed to size: %v", err)
			}
			b.ReportMetric(float64(size), "bytes")

			for i := 0; i < b.N; i++ {
				_ = size
			}
		})
	}
}
