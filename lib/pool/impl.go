package pool

import (
	"reflect"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// messagePool implements the IMessagePool interface with one sync.Pool per
// struct type.
type messagePool struct {
	pools *xsync.MapOf[reflect.Type, *sync.Pool]
}

// NewMessagePool creates a new empty message pool.
func NewMessagePool() IMessagePool {
	return &messagePool{
		pools: xsync.NewMapOf[reflect.Type, *sync.Pool](),
	}
}

// poolFor returns the sync.Pool owning instances of t, creating it on first
// use.
func (p *messagePool) poolFor(t reflect.Type) *sync.Pool {
	pool, _ := p.pools.LoadOrCompute(t, func() *sync.Pool {
		return &sync.Pool{
			New: func() any {
				return reflect.New(t).Interface()
			},
		}
	})
	return pool
}

func (p *messagePool) Obtain(t reflect.Type) any {
	if t.Kind() != reflect.Struct {
		panic("pool: Obtain requires a struct type, got " + t.String())
	}
	return p.poolFor(t).Get()
}

func (p *messagePool) Release(v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return
	}

	// Zero the instance so the next Obtain never sees stale member values
	rv.Elem().SetZero()
	p.poolFor(rv.Elem().Type()).Put(v)
}
