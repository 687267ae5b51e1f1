// Package testing provides standardised tests and benchmarks for
// serializer implementations that satisfy the codec.IStructSerializer
// interface.
//
// The package contains:
//   - testing: A conformance suite validating the mapping, wire-layout,
//     round-trip and error-handling contract of IStructSerializer
//   - benchmark: Performance tests for measuring serialization throughput
//     across representative message shapes
//
// This package is particularly useful for:
//   - Applications that need to compare serializer configurations (e.g.
//     custom leaf registries or activation strategies)
//   - Developers implementing or wrapping the IStructSerializer interface
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() codec.IStructSerializer {
//		return codec.NewStructSerializer()
//	}
//
//	// Running the standard conformance suite
//	testing.RunStructSerializerTests(t, "Default", factory)
//
//	// Running performance benchmarks
//	testing.RunStructSerializerBenchmarks(b, "Default", factory)
package testing
