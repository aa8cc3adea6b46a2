package descriptor

// Item is a single exported declaration.
type Item interface {
	// ItemName returns the exported name, qualified with the receiver for
	// methods, constructors and static functions.
	ItemName() string
	// ItemKind returns a short label used in listings and error messages.
	ItemKind() string
}

// FunctionKind distinguishes free functions from handle-bound ones.
type FunctionKind uint8

const (
	Free FunctionKind = iota
	Constructor
	Method
	Static
)

func (k FunctionKind) String() string {
	switch k {
	case Free:
		return "function"
	case Constructor:
		return "constructor"
	case Method:
		return "method"
	case Static:
		return "static"
	default:
		return "?"
	}
}

// Function is an exported function signature.
type Function struct {
	Name     string
	Receiver string // handle name for constructors, methods and static functions
	Errors   string // ErrorType item name; empty means infallible
	Docs     string
	Params   []Param
	Result   Type
	Kind     FunctionKind
	Blocking bool // the native call may block; hosts should dispatch it off latency-sensitive threads
}

func (f *Function) ItemName() string {
	if f.Kind != Free && f.Receiver != "" {
		return f.Receiver + "." + f.Name
	}
	return f.Name
}

func (f *Function) ItemKind() string { return f.Kind.String() }

// Fallible reports whether the function declares an error-kind set.
func (f *Function) Fallible() bool { return f.Errors != "" }

// Field is a record member.
type Field struct {
	Name string
	Type Type
}

// Record is a fixed-layout struct passed by value or by pointer.
type Record struct {
	Name   string
	Docs   string
	Fields []Field
}

func (r *Record) ItemName() string { return r.Name }
func (r *Record) ItemKind() string { return "record" }

// Enum is a closed set of named cases with codes 0..n-1.
type Enum struct {
	Name  string
	Docs  string
	Cases []string
}

func (e *Enum) ItemName() string { return e.Name }
func (e *Enum) ItemKind() string { return "enum" }

// Handle declares an opaque native object type.
type Handle struct {
	Name string
	Docs string
}

func (h *Handle) ItemName() string { return h.Name }
func (h *Handle) ItemKind() string { return "handle" }

// ErrorType declares the error kinds a fallible function may report.
// Kind codes start at 1; code 0 is reserved for errors without a declared kind.
type ErrorType struct {
	Name  string
	Docs  string
	Kinds []string
}

func (e *ErrorType) ItemName() string { return e.Name }
func (e *ErrorType) ItemKind() string { return "error" }

// Virtual is a native interface flattened to an indexed method table.
// Arguments and results cross as opaque byte payloads.
type Virtual struct {
	Name    string
	Docs    string
	Methods []string
}

func (v *Virtual) ItemName() string { return v.Name }
func (v *Virtual) ItemKind() string { return "virtual" }

// CallbackMethod is one function pointer of a host-implemented interface.
type CallbackMethod struct {
	Name     string
	Params   []Param
	Result   Type
	Fallible bool
}

// Callback is an interface implemented by the host and held by the native
// side as a handle.
type Callback struct {
	Name    string
	Docs    string
	Methods []CallbackMethod
}

func (c *Callback) ItemName() string { return c.Name }
func (c *Callback) ItemKind() string { return "callback" }
