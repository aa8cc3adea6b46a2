package boundary

import "fmt"

// Kinded is implemented by native errors that carry a declared error kind.
type Kinded interface {
	error
	ErrorKind() string
}

// NativeError is a convenience Kinded error for native implementations.
type NativeError struct {
	Kind    string
	Message string
}

func (e *NativeError) Error() string {
	if e.Kind == "" {
		return e.Message
	}
	return e.Kind + ": " + e.Message
}

func (e *NativeError) ErrorKind() string { return e.Kind }

// Errorf builds a NativeError:
//
//	return 0, boundary.Errorf("overflow", "counter at %d", c.value)
func Errorf(kind, format string, args ...any) *NativeError {
	return &NativeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ErrorKinds maps the kind names of one error type to their integer codes.
// Codes start at 1 in declaration order; 0 means no declared kind.
type ErrorKinds struct {
	codes map[string]int32
	name  string
	names []string
}

// NewErrorKinds declares the kinds of an error type.
func NewErrorKinds(name string, kinds ...string) *ErrorKinds {
	k := &ErrorKinds{
		name:  name,
		names: kinds,
		codes: make(map[string]int32, len(kinds)),
	}
	for i, kind := range kinds {
		k.codes[kind] = int32(i + 1)
	}
	return k
}

// Name returns the error type name.
func (k *ErrorKinds) Name() string {
	if k == nil {
		return ""
	}
	return k.name
}

// Code returns the code of kind, or 0 if the kind is not declared.
func (k *ErrorKinds) Code(kind string) int32 {
	if k == nil {
		return 0
	}
	return k.codes[kind]
}

// Kind returns the kind name of code, or "" for 0 and unknown codes.
func (k *ErrorKinds) Kind(code int32) string {
	if k == nil || code < 1 || int(code) > len(k.names) {
		return ""
	}
	return k.names[code-1]
}

// Len returns the number of declared kinds.
func (k *ErrorKinds) Len() int {
	if k == nil {
		return 0
	}
	return len(k.names)
}
