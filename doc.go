// Package bindgen generates C bindings for Go libraries and provides the
// runtime the generated code calls into.
//
// A library describes what it exports (handles, records, enums, error kinds,
// virtual interfaces and host callbacks) as a descriptor. The generator turns
// the descriptor into a C header and matching cgo glue. At run time the glue
// keeps native objects in a generational handle registry and routes every
// call through the boundary runtime, which checks arguments, converts errors
// to status codes and keeps panics from crossing into C.
//
// # Architecture Overview
//
//	bindgen/
//	├── descriptor/      Exported items, type references, validation, WIT import
//	├── layout/          C size, alignment and field offsets of records
//	├── bindgen/         Header and cgo glue generation
//	├── registry/        Sharded generational handle table
//	├── boundary/        Call scopes, status codes, marshaling, vtables
//	├── errors/          Structured error types for debugging
//	└── cmd/bindgen/     CLI and interactive browser
//
// # Quick Start
//
// Describe the exports and generate:
//
//	d := descriptor.New("counter").Add(
//	    &descriptor.Handle{Name: "counter"},
//	    &descriptor.Function{
//	        Name:     "new",
//	        Kind:     descriptor.Constructor,
//	        Receiver: "counter",
//	        Result:   descriptor.HandleOf("counter"),
//	    },
//	)
//
//	out, err := bindgen.Generate(d, bindgen.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for name, body := range out.Files() {
//	    os.WriteFile(name, body, 0o644)
//	}
//
// Implement the generated Impl interface and register it from an init
// function of the package holding the glue:
//
//	func init() { counter.Register(&impl{}) }
//
// Build the package with -buildmode=c-shared or c-archive and link the
// header's consumer against it.
//
// # Handles
//
// Native objects cross the boundary as opaque 64-bit handles: a slot index
// and a generation. Destroying a handle bumps the generation of its slot, so
// a stale or repeated destroy is reported as an invalid handle rather than
// reaching a released object.
//
// # Thread Safety
//
// The registry and the boundary runtime are safe for concurrent use from any
// number of host threads. Native implementations must be safe for
// concurrent use when the host calls them from several threads.
package bindgen
