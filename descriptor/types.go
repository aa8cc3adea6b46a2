package descriptor

// Ownership tags which side of the boundary releases a value.
type Ownership uint8

const (
	// Borrowed values stay owned by the caller for the duration of the call.
	Borrowed Ownership = iota
	// Owned values are transferred to the callee, which must release them.
	Owned
	// Returned values are transferred from the callee to the caller.
	Returned
)

// String returns a human-readable representation of the ownership.
func (o Ownership) String() string {
	switch o {
	case Borrowed:
		return "borrowed"
	case Owned:
		return "owned"
	case Returned:
		return "returned"
	default:
		return "?"
	}
}

// TypeKind identifies the shape of a Type.
type TypeKind uint8

const (
	KindVoid TypeKind = iota
	KindBool
	KindS8
	KindU8
	KindS16
	KindU16
	KindS32
	KindU32
	KindS64
	KindU64
	KindF32
	KindF64
	KindString
	KindBytes
	KindRecord
	KindEnum
	KindHandle
)

var kindNames = [...]string{
	KindVoid:   "void",
	KindBool:   "bool",
	KindS8:     "s8",
	KindU8:     "u8",
	KindS16:    "s16",
	KindU16:    "u16",
	KindS32:    "s32",
	KindU32:    "u32",
	KindS64:    "s64",
	KindU64:    "u64",
	KindF32:    "f32",
	KindF64:    "f64",
	KindString: "string",
	KindBytes:  "bytes",
	KindRecord: "record",
	KindEnum:   "enum",
	KindHandle: "handle",
}

func (k TypeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Type is a value type that can cross the boundary.
// Name is set for record, enum and handle kinds and refers to an item
// declared in the same descriptor.
type Type struct {
	Name string
	Kind TypeKind
}

var (
	Void   = Type{Kind: KindVoid}
	Bool   = Type{Kind: KindBool}
	S8     = Type{Kind: KindS8}
	U8     = Type{Kind: KindU8}
	S16    = Type{Kind: KindS16}
	U16    = Type{Kind: KindU16}
	S32    = Type{Kind: KindS32}
	U32    = Type{Kind: KindU32}
	S64    = Type{Kind: KindS64}
	U64    = Type{Kind: KindU64}
	F32    = Type{Kind: KindF32}
	F64    = Type{Kind: KindF64}
	String = Type{Kind: KindString}
	Bytes  = Type{Kind: KindBytes}
)

// RecordOf references a declared record.
func RecordOf(name string) Type { return Type{Kind: KindRecord, Name: name} }

// EnumOf references a declared enum.
func EnumOf(name string) Type { return Type{Kind: KindEnum, Name: name} }

// HandleOf references a declared handle, virtual or callback interface.
func HandleOf(name string) Type { return Type{Kind: KindHandle, Name: name} }

// String renders the type the way it is written in listings.
func (t Type) String() string {
	if t.IsNamed() {
		return t.Name
	}
	return t.Kind.String()
}

// IsVoid reports whether t is the absent type.
func (t Type) IsVoid() bool { return t.Kind == KindVoid }

// IsPrimitive reports whether t is a scalar.
func (t Type) IsPrimitive() bool {
	return t.Kind >= KindBool && t.Kind <= KindF64
}

// IsNamed reports whether t refers to a declared item.
func (t Type) IsNamed() bool {
	return t.Kind == KindRecord || t.Kind == KindEnum || t.Kind == KindHandle
}

// IsBuffer reports whether t is variable-length data passed as pointer + length.
func (t Type) IsBuffer() bool {
	return t.Kind == KindString || t.Kind == KindBytes
}

// IsFixedSize reports whether t may appear as a record field.
func (t Type) IsFixedSize() bool {
	return t.IsPrimitive() || t.IsNamed()
}

// HasPointer reports whether a borrowed value of type t crosses the boundary
// as a pointer the glue must check for null.
func (t Type) HasPointer() bool {
	return t.IsBuffer() || t.Kind == KindRecord || t.Kind == KindHandle
}

// Param is a single function parameter.
type Param struct {
	Name      string
	Type      Type
	Ownership Ownership
}
