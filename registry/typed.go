package registry

import (
	"fmt"

	"github.com/wippyai/bindgen/errors"
)

// Typed provides type-safe access to handles of a single type id.
type Typed[T any] struct {
	r  *Registry
	id uint32
}

// NewTyped binds a registry to one type id.
func NewTyped[T any](r *Registry, typeID uint32) *Typed[T] {
	return &Typed[T]{r: r, id: typeID}
}

// TypeID returns the bound type id.
func (t *Typed[T]) TypeID() uint32 { return t.id }

// Insert stores v under a new handle.
func (t *Typed[T]) Insert(v T) (Handle, error) {
	return t.r.Insert(t.id, v)
}

// Get returns the value of a live handle.
func (t *Typed[T]) Get(h Handle) (T, error) {
	v, err := t.r.Get(h, t.id)
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](h, v)
}

// Borrow pins a handle until Return is called.
func (t *Typed[T]) Borrow(h Handle) (T, error) {
	v, err := t.r.Borrow(h, t.id)
	if err != nil {
		var zero T
		return zero, err
	}
	out, err := cast[T](h, v)
	if err != nil {
		_ = t.r.Return(h)
	}
	return out, err
}

// Return ends a borrow.
func (t *Typed[T]) Return(h Handle) error {
	return t.r.Return(h)
}

// Take removes the handle and transfers its value to the caller.
func (t *Typed[T]) Take(h Handle) (T, error) {
	v, err := t.r.Take(h, t.id)
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](h, v)
}

// Destroy invalidates the handle and releases its value.
func (t *Typed[T]) Destroy(h Handle) error {
	return t.r.Destroy(h, t.id)
}

func cast[T any](h Handle, v any) (T, error) {
	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, errors.New(errors.PhaseRegistry, errors.KindTypeMismatch).
			Value(uint64(h)).
			GoType(fmt.Sprintf("%T", v)).
			Detail("expected %T", zero).
			Build()
	}
	return out, nil
}
