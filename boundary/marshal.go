package boundary

import (
	"bytes"
	"unicode/utf8"
	"unsafe"

	"github.com/wippyai/bindgen/errors"
	"github.com/wippyai/bindgen/registry"
)

// CheckPointer fails with a null argument error if p is nil.
func (s *Scope) CheckPointer(param string, p unsafe.Pointer) error {
	if p == nil {
		return errors.NullArgument(s.name, param)
	}
	return nil
}

// CheckBuffer validates a {data, len} pair. A nil data pointer is only
// accepted for an empty buffer.
func (s *Scope) CheckBuffer(param string, data unsafe.Pointer, n int) error {
	if data == nil && n != 0 {
		return errors.NullArgument(s.name, param)
	}
	if n < 0 {
		return errors.New(errors.PhaseMarshal, errors.KindEncoding).
			Path(s.name, param).
			Detail("negative length %d", n).
			Build()
	}
	return nil
}

// CheckHandle fails with a null argument error for the zero handle.
func (s *Scope) CheckHandle(param string, h registry.Handle) error {
	if h == 0 {
		return errors.NullArgument(s.name, param)
	}
	return nil
}

// Text copies a borrowed buffer into a Go string after validating UTF-8.
func (s *Scope) Text(param string, b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", errors.InvalidUTF8([]string{s.name, param}, b)
	}
	return string(b), nil
}

// Bytes copies a borrowed buffer into Go memory.
func (s *Scope) Bytes(b []byte) []byte {
	if len(b) == 0 {
		return []byte{}
	}
	return bytes.Clone(b)
}

// Enum validates an enum code received from the host.
func (s *Scope) Enum(param, enumType string, v int32, cases int) error {
	if v < 0 || int(v) >= cases {
		return errors.InvalidEnum([]string{s.name, param}, v, enumType)
	}
	return nil
}

// CheckEnum validates an enum code outside a call scope, such as a value
// returned by a host callback.
func CheckEnum(path, enumType string, v int32, cases int) error {
	if v < 0 || int(v) >= cases {
		return errors.InvalidEnum([]string{path}, v, enumType)
	}
	return nil
}

// View returns a slice aliasing n bytes of C memory at p, or nil when n is 0.
// The slice is only valid for the duration of the call.
func View(p unsafe.Pointer, n int) []byte {
	if p == nil || n <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(p), n)
}

// pointerTag is set on every handle that leaves the boundary as a C pointer.
// Handle pointers live in Go pointer-typed variables on the export path, so
// their values must never fall inside the Go heap. With bit 63 set they lie
// outside any user-space address range. Runtime caps generations at
// MaxGeneration so the tag bit is otherwise always clear.
const pointerTag = 1 << 63

// MaxGeneration is the largest slot generation a Runtime issues.
const MaxGeneration = 1<<31 - 1

// HandleOf recovers the registry handle from an opaque handle pointer
// received from C. Nil yields handle 0.
func HandleOf[P any](p P) registry.Handle {
	v := *(*uint64)(unsafe.Pointer(&p))
	return registry.Handle(v &^ pointerTag)
}

// PointerOf converts h to the opaque handle pointer type P. Handle 0 yields
// nil. The pointer is never dereferenced.
func PointerOf[P any](h registry.Handle) P {
	v := uint64(h)
	if v != 0 {
		v |= pointerTag
	}
	return *(*P)(unsafe.Pointer(&v))
}
