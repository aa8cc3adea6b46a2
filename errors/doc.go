// Package errors provides structured error types for the binding generator
// and the boundary runtime.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Descriptor problems are reported at generation time and are
// fatal; marshaling and registry problems are converted into status values
// by the boundary runtime and never unwind into the host.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMarshal, errors.KindEncoding).
//		Path("greet", "name").
//		CType("example_str").
//		Detail("invalid UTF-8").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.DuplicateName(path, "open", "function open")
//	err := errors.NullArgument("counter_add", "self")
//
// All errors implement the standard error interface and support errors.Is/As.
// Two *Error values match under errors.Is when Phase and Kind are equal.
package errors
