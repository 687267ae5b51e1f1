// Package pool implements instance pooling for message types that are
// deserialized with the indirect activation strategy of the codec package.
// It provides a simple way to reuse decoded message instances across
// deserialization calls and avoid per-message heap allocations.
//
// The pool has no dependency on the codec package itself: it hands out and
// takes back plain instances keyed by their reflect.Type. Wiring happens at
// mapping time via the schema's Obtain hook.
//
// Core Functionality:
//   - Obtain: returns a pooled instance for a given struct type, allocating
//     a fresh one when the pool is empty
//   - Release: returns an instance to the pool after the caller is done
//     with it, zeroing it so no stale data leaks into the next decode
//
// Implementation Approach:
//
//	Each struct type owns a dedicated sync.Pool. The per-type pools live in
//	a concurrent map so pools for new types can be created lazily from any
//	goroutine without a global lock.
//
// Thread Safety:
//
//	All operations are safe for concurrent use. Obtain and Release may be
//	called from any number of goroutines at once.
//
// Example usage:
//
//	p := pool.NewMessagePool()
//	serializer.Map(reflect.TypeOf(PlayerState{}), codec.Schema{
//		Members:    members,
//		Activation: codec.ActivateIndirect,
//		Obtain: func() any {
//			return p.Obtain(reflect.TypeOf(PlayerState{}))
//		},
//	})
//
//	// after processing a decoded message:
//	p.Release(msg)
package pool
