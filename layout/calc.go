package layout

import (
	"github.com/wippyai/bindgen/descriptor"
)

// PointerSize is the size of a C pointer on the supported 64-bit targets.
const PointerSize = 8

// Info describes the C layout of a type.
type Info struct {
	FieldOffs map[string]uint32
	Size      uint32
	Align     uint32
}

// Calculator computes C layouts for the types of one descriptor.
type Calculator struct {
	d     *descriptor.Descriptor
	cache map[string]Info
}

func NewCalculator(d *descriptor.Descriptor) *Calculator {
	return &Calculator{
		d:     d,
		cache: make(map[string]Info),
	}
}

// AlignTo rounds offset up to a multiple of align (a power of two).
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// Calculate returns the layout of t as it appears in the generated header.
// Enums are int32_t, handles are pointers to opaque structs, and strings and
// bytes are the {data, len} pair.
func (c *Calculator) Calculate(t descriptor.Type) Info {
	switch t.Kind {
	case descriptor.KindBool, descriptor.KindU8, descriptor.KindS8:
		return Info{Size: 1, Align: 1}
	case descriptor.KindU16, descriptor.KindS16:
		return Info{Size: 2, Align: 2}
	case descriptor.KindU32, descriptor.KindS32, descriptor.KindF32, descriptor.KindEnum:
		return Info{Size: 4, Align: 4}
	case descriptor.KindU64, descriptor.KindS64, descriptor.KindF64:
		return Info{Size: 8, Align: 8}
	case descriptor.KindHandle:
		return Info{Size: PointerSize, Align: PointerSize}
	case descriptor.KindString, descriptor.KindBytes:
		return Info{Size: 2 * PointerSize, Align: PointerSize} // [data, len]
	case descriptor.KindRecord:
		return c.record(t.Name)
	default:
		return Info{Size: 0, Align: 1}
	}
}

func (c *Calculator) record(name string) Info {
	if cached, ok := c.cache[name]; ok {
		return cached
	}

	it, ok := c.d.Lookup(name)
	if !ok {
		return Info{Size: 0, Align: 1}
	}
	r, ok := it.(*descriptor.Record)
	if !ok || len(r.Fields) == 0 {
		return Info{Size: 0, Align: 1}
	}

	// Placeholder so a cyclic descriptor terminates; Validate rejects those.
	c.cache[name] = Info{Size: 0, Align: 1}

	fieldOffs := make(map[string]uint32, len(r.Fields))
	maxAlign := uint32(1)
	offset := uint32(0)

	for _, field := range r.Fields {
		fieldLayout := c.Calculate(field.Type)

		offset = AlignTo(offset, fieldLayout.Align)
		fieldOffs[field.Name] = offset

		if fieldLayout.Align > maxAlign {
			maxAlign = fieldLayout.Align
		}

		offset += fieldLayout.Size
	}

	info := Info{
		Size:      AlignTo(offset, maxAlign),
		Align:     maxAlign,
		FieldOffs: fieldOffs,
	}
	c.cache[name] = info
	return info
}
