// Package bindgen generates the C side and the cgo glue of a native library
// boundary from a descriptor.
//
// Generate emits three artifacts:
//
//   - a C header with the shared boundary types, one opaque typedef per
//     handle type, enums, records with layout assertions, callback vtables
//     and one prototype per exported function;
//   - Go glue with mirror types, an Impl interface for the native core and
//     one //export function per prototype, each running inside
//     boundary.Runtime.Invoke;
//   - for descriptors with callback interfaces, a second Go file with the C
//     trampolines used to call host function pointers.
//
// Every exported function returns its result by value and reports failure
// through a trailing status pointer:
//
//	uint64_t counter_counter_increment(counter_counter* self, uint32_t by, counter_status* status);
//
// Usage:
//
//	out, err := bindgen.Generate(descriptortest.Counter(), bindgen.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	for name, data := range out.Files() {
//		os.WriteFile(filepath.Join(dir, name), data, 0o644)
//	}
package bindgen
