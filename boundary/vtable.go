package boundary

import "github.com/wippyai/bindgen/errors"

// Method is one entry of a virtual interface: it receives the opaque
// argument payload and returns the result payload.
type Method[T any] struct {
	Call func(recv T, args []byte) ([]byte, error)
	Name string
}

// VTable dispatches virtual calls on T by method index.
type VTable[T any] struct {
	name    string
	methods []Method[T]
}

// NewVTable builds a dispatch table. Method indices follow the order given.
func NewVTable[T any](name string, methods ...Method[T]) *VTable[T] {
	return &VTable[T]{name: name, methods: methods}
}

// Name returns the interface name.
func (vt *VTable[T]) Name() string { return vt.name }

// Len returns the number of methods.
func (vt *VTable[T]) Len() int { return len(vt.methods) }

// Index returns the index of the named method, or -1.
func (vt *VTable[T]) Index(name string) int {
	for i, m := range vt.methods {
		if m.Name == name {
			return i
		}
	}
	return -1
}

// Call invokes method index on recv. An index outside the table fails with
// an unknown method error without touching recv.
func (vt *VTable[T]) Call(recv T, index uint32, args []byte) ([]byte, error) {
	if uint64(index) >= uint64(len(vt.methods)) {
		return nil, errors.UnknownMethod(vt.name, index, len(vt.methods))
	}
	return vt.methods[index].Call(recv, args)
}
