package boundary

import (
	"sync/atomic"

	"github.com/wippyai/bindgen/errors"
)

// Binding holds the native implementation a generated package dispatches to.
type Binding[T any] struct {
	v    atomic.Pointer[T]
	name string
}

// NewBinding creates an empty binding. name appears in not-initialized errors.
func NewBinding[T any](name string) *Binding[T] {
	return &Binding[T]{name: name}
}

// Set installs the implementation, replacing any previous one.
func (b *Binding[T]) Set(impl T) {
	b.v.Store(&impl)
}

// Reset removes the implementation.
func (b *Binding[T]) Reset() {
	b.v.Store(nil)
}

// Get returns the implementation, or a not-initialized error if none is set.
func (b *Binding[T]) Get() (T, error) {
	p := b.v.Load()
	if p == nil {
		var zero T
		return zero, errors.NotInitialized(b.name)
	}
	return *p, nil
}
