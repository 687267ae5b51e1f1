package testing

import (
	"reflect"
	"testing"

	"github.com/structwire/structwire/lib/codec"
)

// RunStructSerializerBenchmarks runs all benchmarks for an IStructSerializer
// implementation
func RunStructSerializerBenchmarks(b *testing.B, name string, factory SerializerFactory) {
	b.Run(name+"_Serialize", func(b *testing.B) {
		benchmarkSerialize(b, factory())
	})

	b.Run(name+"_Deserialize", func(b *testing.B) {
		benchmarkDeserialize(b, factory())
	})

	b.Run(name+"_GetSizeFromValue", func(b *testing.B) {
		benchmarkGetSizeFromValue(b, factory())
	})

	b.Run(name+"_GetSizeFromBuffer", func(b *testing.B) {
		benchmarkGetSizeFromBuffer(b, factory())
	})

	b.Run(name+"_Map", func(b *testing.B) {
		benchmarkMap(b, factory)
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkSerialize(b *testing.B, s codec.IStructSerializer) {
	MapFixtures(b, s)
	state := fixtureStates()[0]

	size, err := s.GetSizeFromValue(state)
	if err != nil {
		b.Fatalf("Failed to size: %v", err)
	}
	buf := make([]byte, size)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Serialize(state, buf, 0); err != nil {
			b.Fatalf("Failed to serialize: %v", err)
		}
	}
}

func benchmarkDeserialize(b *testing.B, s codec.IStructSerializer) {
	MapFixtures(b, s)
	state := fixtureStates()[0]
	stateType := reflect.TypeOf(PlayerState{})
	buf := encode(b, s, state)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := s.Deserialize(stateType, buf, 0); err != nil {
			b.Fatalf("Failed to deserialize: %v", err)
		}
	}
}

func benchmarkGetSizeFromValue(b *testing.B, s codec.IStructSerializer) {
	MapFixtures(b, s)
	state := fixtureStates()[0]

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.GetSizeFromValue(state); err != nil {
			b.Fatalf("Failed to size: %v", err)
		}
	}
}

func benchmarkGetSizeFromBuffer(b *testing.B, s codec.IStructSerializer) {
	MapFixtures(b, s)
	state := fixtureStates()[0]
	stateType := reflect.TypeOf(PlayerState{})
	buf := encode(b, s, state)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.GetSizeFromBuffer(stateType, buf, 0); err != nil {
			b.Fatalf("Failed to size from buffer: %v", err)
		}
	}
}

// benchmarkMap measures the one-time mapping cost; each iteration uses a
// fresh serializer since mapping is idempotent per instance
func benchmarkMap(b *testing.B, factory SerializerFactory) {
	vecType := reflect.TypeOf(Vector{})
	stateType := reflect.TypeOf(PlayerState{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := factory()
		if err := s.Map(vecType, VectorSchema()); err != nil {
			b.Fatalf("Failed to map: %v", err)
		}
		if err := s.Map(stateType, PlayerStateSchema()); err != nil {
			b.Fatalf("Failed to map: %v", err)
		}
	}
}
