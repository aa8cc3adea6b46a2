package errors

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseValidate Phase = "validate" // descriptor validation
	PhaseImport   Phase = "import"   // WIT to descriptor conversion
	PhaseGenerate Phase = "generate" // header and glue emission
	PhaseMarshal  Phase = "marshal"  // argument/result conversion at the boundary
	PhaseRegistry Phase = "registry" // handle table operations
	PhaseNative   Phase = "native"   // errors raised by the native core
	PhaseRuntime  Phase = "runtime"  // boundary lifecycle
)

// Kind categorizes the error
type Kind string

const (
	KindDuplicateName     Kind = "duplicate_name"
	KindUndeclaredType    Kind = "undeclared_type"
	KindInvalidDescriptor Kind = "invalid_descriptor"
	KindUnsupported       Kind = "unsupported"
	KindNullArgument      Kind = "null_argument"
	KindInvalidHandle     Kind = "invalid_handle"
	KindTypeMismatch      Kind = "type_mismatch"
	KindEncoding          Kind = "encoding_failure"
	KindNative            Kind = "native_error"
	KindPanic             Kind = "panic"
	KindUnknownMethod     Kind = "unknown_method"
	KindNotInitialized    Kind = "not_initialized"
	KindClosed            Kind = "closed"
	KindFormat            Kind = "format"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	CType  string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.CType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.CType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", C type ")
			b.WriteString(e.CType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("C type ")
			b.WriteString(e.CType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.CType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the item path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// CType sets the C type name
func (b *Builder) CType(t string) *Builder {
	b.err.CType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Descriptor errors

// DuplicateName reports two exported items sharing a name.
func DuplicateName(path []string, name, first string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindDuplicateName,
		Path:   path,
		Detail: fmt.Sprintf("name %q already declared by %s", name, first),
		Value:  name,
	}
}

// UndeclaredType reports a reference to a type the descriptor does not declare.
func UndeclaredType(path []string, name string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindUndeclaredType,
		Path:   path,
		Detail: fmt.Sprintf("type %q is not declared", name),
		Value:  name,
	}
}

// InvalidDescriptor reports any other structural problem in a descriptor.
func InvalidDescriptor(path []string, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindInvalidDescriptor,
		Path:   path,
		Detail: detail,
	}
}

// IsDescriptorError reports whether err (or any error aggregated in it) is a
// generation-time descriptor error.
func IsDescriptorError(err error) bool {
	for _, e := range multierr.Errors(err) {
		var de *Error
		if !As(e, &de) {
			continue
		}
		switch de.Kind {
		case KindDuplicateName, KindUndeclaredType, KindInvalidDescriptor:
			return true
		}
	}
	return false
}

// Combine aggregates descriptor problems so all of them are reported at once.
func Combine(errs ...error) error {
	return multierr.Combine(errs...)
}

// Boundary errors

// NullArgument creates an error for a null borrowed pointer.
func NullArgument(function, param string) *Error {
	return &Error{
		Phase:  PhaseMarshal,
		Kind:   KindNullArgument,
		Path:   []string{function, param},
		Detail: "null pointer passed for borrowed argument",
	}
}

// InvalidHandle creates an error for a handle that is not live.
func InvalidHandle(handle uint64, detail string) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindInvalidHandle,
		Detail: fmt.Sprintf("handle %#x: %s", handle, detail),
		Value:  handle,
	}
}

// HandleTypeMismatch creates an error for a live handle of the wrong type.
func HandleTypeMismatch(handle uint64, want, got uint32) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindInvalidHandle,
		Detail: fmt.Sprintf("handle %#x has type %d, expected %d", handle, got, want),
		Value:  handle,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  PhaseMarshal,
		Kind:   KindEncoding,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// InvalidEnum creates an encoding error for an out-of-range enum value
func InvalidEnum(path []string, value any, enumType string) *Error {
	return &Error{
		Phase:  PhaseMarshal,
		Kind:   KindEncoding,
		Path:   path,
		CType:  enumType,
		Detail: fmt.Sprintf("invalid enum value %v for %s", value, enumType),
		Value:  value,
	}
}

// Native wraps an error raised by the native core.
func Native(kind, message string) *Error {
	return &Error{
		Phase:  PhaseNative,
		Kind:   KindNative,
		Detail: message,
		Value:  kind,
	}
}

// Panic converts a recovered panic value.
func Panic(function string, value any) *Error {
	return &Error{
		Phase:  PhaseNative,
		Kind:   KindPanic,
		Path:   []string{function},
		Detail: fmt.Sprintf("panic: %v", value),
		Value:  value,
	}
}

// UnknownMethod reports a virtual call with an index outside the method table.
func UnknownMethod(iface string, index uint32, count int) *Error {
	return &Error{
		Phase:  PhaseMarshal,
		Kind:   KindUnknownMethod,
		Path:   []string{iface},
		Detail: fmt.Sprintf("method index %d out of range (%d methods)", index, count),
		Value:  index,
	}
}

// NotInitialized creates a not-initialized error
func NotInitialized(component string) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// Closed reports an operation on a registry that has been shut down.
func Closed(component string) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s closed", component),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
