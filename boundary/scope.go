package boundary

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/bindgen/errors"
	"github.com/wippyai/bindgen/registry"
)

type cleanup struct {
	fn        func()
	onFailure bool
}

// Scope tracks the resources of one boundary call. Deferred functions run in
// LIFO order when the call returns, whether it succeeded, failed or panicked.
type Scope struct {
	reg      *registry.Registry
	name     string
	cleanups []cleanup
	failed   bool
}

func newScope(reg *registry.Registry, name string) *Scope {
	return &Scope{reg: reg, name: name}
}

// Function returns the exported function name of the call.
func (s *Scope) Function() string { return s.name }

// Registry returns the handle registry of the runtime.
func (s *Scope) Registry() *registry.Registry { return s.reg }

// Defer registers fn to run when the call returns.
func (s *Scope) Defer(fn func()) {
	s.cleanups = append(s.cleanups, cleanup{fn: fn})
}

// OnFailure registers fn to run only if the call fails or panics.
func (s *Scope) OnFailure(fn func()) {
	s.cleanups = append(s.cleanups, cleanup{fn: fn, onFailure: true})
}

// close runs pending cleanups. A panicking cleanup is logged and the
// remaining cleanups still run.
func (s *Scope) close() {
	for len(s.cleanups) > 0 {
		c := s.cleanups[len(s.cleanups)-1]
		s.cleanups = s.cleanups[:len(s.cleanups)-1]
		if c.onFailure && !s.failed {
			continue
		}
		s.run(c.fn)
	}
}

func (s *Scope) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("panic in boundary cleanup",
				zap.String("function", s.name),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	fn()
}

// Borrow looks up a live handle of the given type and pins it for the rest
// of the call.
func (s *Scope) Borrow(h registry.Handle, typeID uint32) (any, error) {
	v, err := s.reg.Borrow(h, typeID)
	if err != nil {
		return nil, err
	}
	s.Defer(func() { _ = s.reg.Return(h) })
	return v, nil
}

// Owned is a value taken out of the registry by Consume.
type Owned struct {
	value any
	kept  bool
}

// Value returns the consumed value.
func (o *Owned) Value() any { return o.value }

// Keep marks the value as handed to native code; the scope will no longer
// release it.
func (o *Owned) Keep() { o.kept = true }

// Consume takes ownership of a handle passed as an owned argument. The handle
// is invalid from now on. Unless Keep is called the value is released when
// the call returns.
func (s *Scope) Consume(h registry.Handle, typeID uint32) (*Owned, error) {
	v, err := s.reg.Take(h, typeID)
	if err != nil {
		return nil, err
	}
	o := &Owned{value: v}
	s.Defer(func() {
		if !o.kept {
			release(v)
		}
	})
	return o, nil
}

// Owns records that the call received h as an owned argument. If the call
// fails, h is destroyed unless Consume already took it.
func (s *Scope) Owns(h registry.Handle, typeID uint32) {
	s.OnFailure(func() {
		if h != 0 {
			_ = s.reg.Destroy(h, typeID)
		}
	})
}

// Export registers a value returned to the host and returns its handle. If
// the call fails after Export, the handle is destroyed again so the host
// never sees it.
func (s *Scope) Export(typeID uint32, value any) (registry.Handle, error) {
	if value == nil {
		return 0, errors.New(errors.PhaseNative, errors.KindNative).
			Path(s.name, "result").
			Detail("native code returned no value for a handle result").
			Build()
	}
	h, err := s.reg.Insert(typeID, value)
	if err != nil {
		release(value)
		return 0, err
	}
	s.OnFailure(func() { _ = s.reg.Destroy(h, typeID) })
	return h, nil
}

func release(v any) {
	if r, ok := v.(registry.Releaser); ok {
		r.Release()
	}
}

// As converts a registry value to the interface a parameter expects.
func As[T any](s *Scope, param string, v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, errors.New(errors.PhaseMarshal, errors.KindTypeMismatch).
			Path(s.name, param).
			GoType(fmt.Sprintf("%T", v)).
			Detail("want %T", &zero).
			Build()
	}
	return t, nil
}

// BorrowAs borrows h for the rest of the call and converts its value to T.
func BorrowAs[T any](s *Scope, param string, h registry.Handle, typeID uint32) (T, error) {
	v, err := s.Borrow(h, typeID)
	if err != nil {
		var zero T
		return zero, err
	}
	return As[T](s, param, v)
}

// ConsumeAs takes ownership of h and converts its value to T. The value is
// released when the call returns unless Keep is called on the returned Owned.
func ConsumeAs[T any](s *Scope, param string, h registry.Handle, typeID uint32) (T, *Owned, error) {
	o, err := s.Consume(h, typeID)
	if err != nil {
		var zero T
		return zero, nil, err
	}
	v, err := As[T](s, param, o.Value())
	return v, o, err
}
