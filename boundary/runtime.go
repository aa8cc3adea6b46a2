package boundary

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/bindgen/errors"
	"github.com/wippyai/bindgen/registry"
)

// Runtime owns the handle registry of one generated package and guards every
// exported call.
//
// The registry exists only between Init and Shutdown. Calls made outside that
// window fail with StatusNotInitialized.
type Runtime struct {
	reg  *registry.Registry
	cfg  *registry.Config
	name string
	mu   sync.RWMutex
}

// New creates a runtime. cfg configures the registry created by Init; nil
// means registry defaults. Generations are capped at MaxGeneration.
func New(name string, cfg *registry.Config) *Runtime {
	return &Runtime{name: name, cfg: cfg}
}

// Name returns the package name the runtime was created for.
func (rt *Runtime) Name() string { return rt.name }

// Init creates the handle registry. Calling Init on an initialized runtime
// is a no-op. A runtime can be initialized again after Shutdown.
func (rt *Runtime) Init() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.reg != nil {
		return nil
	}
	cfg := registry.DefaultConfig()
	if rt.cfg != nil {
		c := *rt.cfg
		cfg = &c
	}
	if cfg.MaxGeneration == 0 || cfg.MaxGeneration > MaxGeneration {
		cfg.MaxGeneration = MaxGeneration
	}
	rt.reg = registry.New(cfg)
	Logger().Debug("runtime initialized", zap.String("package", rt.name))
	return nil
}

// Shutdown destroys every live handle and tears down the registry.
// Shutting down an uninitialized runtime is a no-op.
func (rt *Runtime) Shutdown() error {
	rt.mu.Lock()
	reg := rt.reg
	rt.reg = nil
	rt.mu.Unlock()

	if reg == nil {
		return nil
	}
	live := reg.Len()
	if err := reg.Close(); err != nil {
		return errors.Wrap(errors.PhaseRuntime, errors.KindClosed, err, "close registry")
	}
	Logger().Debug("runtime shut down", zap.String("package", rt.name), zap.Int("released", live))
	return nil
}

// Initialized reports whether Init has been called without a later Shutdown.
func (rt *Runtime) Initialized() bool {
	return rt.current() != nil
}

// Registry returns the live registry.
func (rt *Runtime) Registry() (*registry.Registry, error) {
	reg := rt.current()
	if reg == nil {
		return nil, errors.NotInitialized(rt.name)
	}
	return reg, nil
}

// Live returns the number of live handles, or 0 when not initialized.
func (rt *Runtime) Live() int {
	reg := rt.current()
	if reg == nil {
		return 0
	}
	return reg.Len()
}

// Discard destroys an owned handle passed to a call that never runs, such as
// one made with a NULL status. Zero, stale and mistyped handles are ignored,
// as is a runtime that is not initialized.
func (rt *Runtime) Discard(h registry.Handle, typeID uint32) {
	reg := rt.current()
	if reg == nil || h == 0 {
		return
	}
	if err := reg.Destroy(h, typeID); err != nil {
		Logger().Debug("discard skipped",
			zap.String("package", rt.name),
			zap.Stringer("handle", h),
			zap.Error(err))
	}
}

func (rt *Runtime) current() *registry.Registry {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.reg
}

// Invoke runs fn for the exported function name and converts the outcome to
// a status. Panics are recovered and never propagate to the caller.
// Resources registered on the scope are released before Invoke returns.
func (rt *Runtime) Invoke(name string, fn func(*Scope) error) Status {
	return rt.InvokeFallible(name, nil, fn)
}

// InvokeFallible is Invoke for functions that declare an error type. Native
// errors are mapped to kind codes through kinds.
func (rt *Runtime) InvokeFallible(name string, kinds *ErrorKinds, fn func(*Scope) error) (st Status) {
	reg := rt.current()
	if reg == nil {
		return StatusOf(errors.NotInitialized(rt.name), kinds)
	}

	s := newScope(reg, name)
	defer func() {
		if r := recover(); r != nil {
			s.failed = true
			s.close()
			Logger().Error("panic at boundary",
				zap.String("function", name),
				zap.String("panic", fmt.Sprint(r)),
				zap.Stack("stack"))
			st = StatusOf(errors.Panic(name, r), kinds)
		}
	}()

	err := fn(s)
	if err != nil {
		s.failed = true
	}
	s.close()

	if err != nil {
		st = StatusOf(err, kinds)
		Logger().Debug("boundary call failed",
			zap.String("function", name),
			zap.Stringer("status", st.Code),
			zap.Error(err))
		return st
	}
	return Status{}
}
