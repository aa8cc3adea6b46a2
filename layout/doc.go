// Package layout computes C sizes, alignments and field offsets for
// descriptor types on 64-bit targets.
//
// The generator emits a _Static_assert for every record so a header compiled
// with an ABI that disagrees fails loudly instead of corrupting memory.
//
//	calc := layout.NewCalculator(d)
//	info := calc.Calculate(descriptor.RecordOf("stats"))
//	// info.Size, info.Align, info.FieldOffs
//
// Layout rules follow the C struct rules every mainstream 64-bit ABI shares:
//   - Primitives: size equals alignment (u8=1, u32=4, u64=8)
//   - Enums: int32_t
//   - Handles: one pointer
//   - Records: fields in order, each aligned, total padded to the max alignment
package layout
