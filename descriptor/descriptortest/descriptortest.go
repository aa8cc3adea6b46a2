// Package descriptortest provides descriptors shared by tests and demos.
package descriptortest

import "github.com/wippyai/bindgen/descriptor"

// Counter returns a descriptor exercising every item kind: a handle with a
// constructor, methods and a static function, a record, an enum, an error
// type, a virtual interface and a host callback interface.
func Counter() *descriptor.Descriptor {
	return descriptor.New("counter").Add(
		&descriptor.ErrorType{
			Name:  "counter-error",
			Docs:  "Failures reported by the counter core.",
			Kinds: []string{"overflow", "not-found", "invalid-input"},
		},
		&descriptor.Enum{
			Name:  "mode",
			Cases: []string{"wrapping", "saturating", "checked"},
		},
		&descriptor.Record{
			Name: "stats",
			Fields: []descriptor.Field{
				{Name: "value", Type: descriptor.U64},
				{Name: "increments", Type: descriptor.U32},
				{Name: "mode", Type: descriptor.EnumOf("mode")},
			},
		},
		&descriptor.Handle{Name: "counter", Docs: "A native counter object."},
		&descriptor.Function{
			Name:     "new",
			Kind:     descriptor.Constructor,
			Receiver: "counter",
			Params: []descriptor.Param{
				{Name: "start", Type: descriptor.U64},
				{Name: "mode", Type: descriptor.EnumOf("mode")},
			},
			Result: descriptor.HandleOf("counter"),
		},
		&descriptor.Function{
			Name:     "increment",
			Kind:     descriptor.Method,
			Receiver: "counter",
			Params:   []descriptor.Param{{Name: "by", Type: descriptor.U32}},
			Result:   descriptor.U64,
			Errors:   "counter-error",
		},
		&descriptor.Function{
			Name:     "stats",
			Kind:     descriptor.Method,
			Receiver: "counter",
			Result:   descriptor.RecordOf("stats"),
		},
		&descriptor.Function{
			Name:     "label",
			Kind:     descriptor.Method,
			Receiver: "counter",
			Params:   []descriptor.Param{{Name: "prefix", Type: descriptor.String}},
			Result:   descriptor.String,
		},
		&descriptor.Function{
			Name:     "max-value",
			Kind:     descriptor.Static,
			Receiver: "counter",
			Result:   descriptor.U64,
		},
		&descriptor.Function{
			Name: "merge",
			Params: []descriptor.Param{
				{Name: "into", Type: descriptor.HandleOf("counter")},
				{Name: "from", Type: descriptor.HandleOf("counter"), Ownership: descriptor.Owned},
			},
			Errors: "counter-error",
		},
		&descriptor.Function{
			Name: "parse",
			Params: []descriptor.Param{
				{Name: "text", Type: descriptor.String},
				{Name: "payload", Type: descriptor.Bytes, Ownership: descriptor.Owned},
			},
			Result:   descriptor.HandleOf("counter"),
			Errors:   "counter-error",
			Blocking: true,
		},
		&descriptor.Function{
			Name:   "apply-stats",
			Params: []descriptor.Param{{Name: "stats", Type: descriptor.RecordOf("stats")}},
			Result: descriptor.Bool,
		},
		&descriptor.Virtual{
			Name:    "shape",
			Docs:    "Native shape implementations dispatched by method index.",
			Methods: []string{"area", "describe"},
		},
		&descriptor.Function{
			Name:   "unit-square",
			Docs:   "Returns a shape backed by a native square of side 1.",
			Result: descriptor.HandleOf("shape"),
		},
		&descriptor.Callback{
			Name: "token-provider",
			Docs: "Credential lookup implemented by the host.",
			Methods: []descriptor.CallbackMethod{
				{
					Name: "get-token",
					Params: []descriptor.Param{
						{Name: "service", Type: descriptor.String},
					},
					Result:   descriptor.String,
					Fallible: true,
				},
				{
					Name:   "ttl",
					Result: descriptor.U32,
				},
			},
		},
		&descriptor.Function{
			Name: "authenticate",
			Params: []descriptor.Param{
				{Name: "provider", Type: descriptor.HandleOf("token-provider")},
				{Name: "service", Type: descriptor.String},
			},
			Result: descriptor.Bool,
			Errors: "counter-error",
		},
	)
}

// FunctionCount returns the number of user-declared functions in Counter.
func FunctionCount() int {
	return len(Counter().Functions())
}
