// Package encoder provides general-purpose value encoding behind a common
// interface. It exists alongside the schema-compiled codec package as a set
// of baseline formats: every implementation encodes arbitrary Go values
// without prior mapping, trading wire size and speed for convenience.
//
// The package focuses on:
//   - Providing a consistent interface for different encoding formats
//   - Offering multiple implementations with different performance characteristics
//   - Serving as comparison baselines for the schema-compiled binary codec
//
// Key Components:
//
//   - IEncoder: Core interface that all encoder implementations must satisfy.
//
//   - jsonEncoderImpl: Implementation using JSON encoding, useful for
//     debugging or interoperability with other systems, but with lower
//     performance and the largest payloads.
//
//   - gobEncoderImpl: Implementation using Go's built-in gob encoding,
//     offering good compatibility with Go's type system but with
//     per-message type preambles that inflate small payloads.
//
//   - msgpackEncoderImpl: Implementation using the MessagePack format,
//     a compact self-describing binary encoding that usually beats JSON
//     and gob on both size and speed.
//
// None of the baseline encoders reaches the wire density of the codec
// package, which omits member names and type tags entirely. Use an encoder
// when schema mapping is not worth the setup cost; use the codec for hot
// paths with known message types.
//
// Thread Safety:
//
//	All encoder implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	Encoders are typically created once and reused throughout the application:
//
//	  enc := encoder.NewMsgpackEncoder()
//	  data, err := enc.Marshal(value)
//	  // ... send data ...
//	  var received MyType
//	  err = enc.Unmarshal(data, &received)
package encoder
