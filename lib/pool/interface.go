package pool

import "reflect"

// IMessagePool defines the interface for a message instance pool.
type IMessagePool interface {
	// Obtain returns a pointer to an instance of the given struct type.
	// The instance is either reused from the pool or freshly allocated;
	// either way all its members hold their zero value.
	// Obtain panics if t is not a struct type.
	Obtain(t reflect.Type) any

	// Release returns an instance previously handed out by Obtain to the
	// pool. The value must be a non-nil pointer to a struct; anything else
	// is ignored. The instance is zeroed before it becomes available again,
	// the caller must not use it after the call.
	Release(v any)
}
