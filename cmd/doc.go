// Package cmd implements the command-line interface for the structwire
// serialization library. It provides a small command hierarchy for
// benchmarking the schema-compiled codec against general-purpose encoders
// and for inspecting library metadata.
//
// The package is organized into several subpackages:
//
//   - bench: Commands for benchmarking serialization throughput and wire
//     size across the compiled codec and the baseline encoders
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See structwire -help for a list of all commands.
package cmd
