package bindgen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/wippyai/bindgen/descriptor"
	"github.com/wippyai/bindgen/descriptor/descriptortest"
	"github.com/wippyai/bindgen/errors"
)

func generateCounter(t *testing.T) *Output {
	t.Helper()
	out, err := Generate(descriptortest.Counter(), DefaultOptions())
	require.NoError(t, err)
	return out
}

// exportBody returns the glue source of one exported function.
func exportBody(t *testing.T, glue []byte, symbol string) string {
	t.Helper()
	src := string(glue)
	start := strings.Index(src, "//export "+symbol+"\n")
	require.GreaterOrEqual(t, start, 0, "no export for %s", symbol)
	rest := src[start+len("//export "):]
	if end := strings.Index(rest, "//export "); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func TestGenerate_OnePrototypePerFunction(t *testing.T) {
	d := descriptortest.Counter()
	out := generateCounter(t)
	header := string(out.Header)
	glue := string(out.Glue)

	p := newPlan(d, DefaultOptions().withDefaults())
	require.Len(t, p.funcs, descriptortest.FunctionCount())
	for _, fp := range p.funcs {
		assert.Equal(t, 1, strings.Count(header, " "+fp.symbol+"("), "prototype of %s", fp.symbol)
		assert.Equal(t, 1, strings.Count(glue, "//export "+fp.symbol+"\n"), "export of %s", fp.symbol)
	}

	generated := []string{
		"counter_init", "counter_shutdown", "counter_buffer_free",
		"counter_counter_destroy", "counter_shape_destroy", "counter_token_provider_destroy",
		"counter_shape_call", "counter_token_provider_new",
	}
	for _, sym := range generated {
		assert.Equal(t, 1, strings.Count(header, " "+sym+"("), "prototype of %s", sym)
		assert.Equal(t, 1, strings.Count(glue, "//export "+sym+"\n"), "export of %s", sym)
	}

	assert.NotContains(t, header, "{\n\treturn", "header has no bodies")
}

func TestGenerate_Prototypes(t *testing.T) {
	header := string(generateCounter(t).Header)

	want := []string{
		"counter_counter* counter_counter_new(uint64_t start, counter_mode mode, counter_status* status);",
		"uint64_t counter_counter_increment(counter_counter* self, uint32_t by, counter_status* status);",
		"counter_stats counter_counter_stats(counter_counter* self, counter_status* status);",
		"counter_buffer counter_counter_label(counter_counter* self, counter_str prefix, counter_status* status);",
		"uint64_t counter_counter_max_value(counter_status* status);",
		"void counter_merge(counter_counter* into, counter_counter* from, counter_status* status);",
		"counter_counter* counter_parse(counter_str text, counter_buffer payload, counter_status* status);",
		"bool counter_apply_stats(counter_stats* stats, counter_status* status);",
		"bool counter_authenticate(counter_token_provider* provider, counter_str service, counter_status* status);",
		"counter_buffer counter_shape_call(counter_shape* self, uint32_t method, counter_str args, counter_status* status);",
		"counter_token_provider* counter_token_provider_new(counter_token_provider_vtable* vtable, counter_status* status);",
		"void counter_buffer_free(counter_buffer buffer);",
		"typedef struct counter_counter counter_counter;",
		"typedef int32_t counter_mode;",
		"COUNTER_COUNTER_ERROR_INTERNAL = 0,",
		"COUNTER_COUNTER_ERROR_INVALID_INPUT = 3,",
		"COUNTER_SHAPE_DESCRIBE = 1,",
		"COUNTER_SHAPE_METHOD_COUNT = 2,",
		"COUNTER_STATUS_NOT_INITIALIZED = 7,",
		"counter_buffer (*get_token)(void* context, counter_str service, counter_status* status);",
		"uint32_t (*ttl)(void* context);",
		"#ifndef COUNTER_H",
		`extern "C" {`,
	}
	for _, s := range want {
		assert.Contains(t, header, s)
	}
}

func TestGenerate_StaticAsserts(t *testing.T) {
	header := string(generateCounter(t).Header)
	assert.Contains(t, header, `COUNTER_STATIC_ASSERT(sizeof(counter_stats) == 16, "counter_stats size");`)
	assert.Contains(t, header, `COUNTER_STATIC_ASSERT(offsetof(counter_stats, increments) == 8, "counter_stats.increments offset");`)
	assert.Contains(t, header, `COUNTER_STATIC_ASSERT(offsetof(counter_stats, mode) == 12, "counter_stats.mode offset");`)
	assert.Contains(t, string(generateCounter(t).Glue), "var _ = [1]struct{}{}[unsafe.Sizeof(C.counter_stats{})-16]")
}

func TestGenerate_BlockingComment(t *testing.T) {
	header := string(generateCounter(t).Header)
	proto := strings.Index(header, " counter_parse(")
	require.Greater(t, proto, 0)
	comment := strings.LastIndex(header[:proto], "Blocking:")
	require.Greater(t, comment, 0)
	assert.NotContains(t, header[comment:proto], ";", "comment belongs to the next prototype")
}

func TestGenerate_GlueParses(t *testing.T) {
	out := generateCounter(t)
	require.NotEmpty(t, out.Callbacks)

	fset := token.NewFileSet()
	glue, err := parser.ParseFile(fset, out.GlueName, out.Glue, parser.ParseComments)
	require.NoError(t, err)
	assert.Equal(t, "counter", glue.Name.Name)

	funcs := make(map[string]bool)
	types := make(map[string]bool)
	for _, decl := range glue.Decls {
		switch decl := decl.(type) {
		case *ast.FuncDecl:
			if decl.Recv == nil {
				funcs[decl.Name.Name] = true
			}
		case *ast.GenDecl:
			for _, spec := range decl.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok {
					types[ts.Name.Name] = true
				}
			}
		}
	}
	for _, name := range []string{"Impl", "Counter", "Shape", "TokenProvider", "Stats", "Mode"} {
		assert.True(t, types[name], "type %s", name)
	}
	for _, name := range []string{"Register", "Runtime", "writeStatus", "bufferOf", "statsFromC", "statsToC", "counter_merge"} {
		assert.True(t, funcs[name], "func %s", name)
	}

	cb, err := parser.ParseFile(fset, out.CallbacksName, out.Callbacks, parser.ParseComments)
	require.NoError(t, err)
	var methods []string
	for _, decl := range cb.Decls {
		if fd, ok := decl.(*ast.FuncDecl); ok && fd.Recv != nil {
			methods = append(methods, fd.Name.Name)
		}
	}
	assert.ElementsMatch(t, []string{"GetToken", "TTL", "Release"}, methods)
	assert.Contains(t, string(out.Callbacks), "static inline counter_buffer counter_token_provider_get_token_invoke(")
	assert.NotContains(t, string(out.Glue), "static inline", "export file preamble only declares")
}

func TestGenerate_ImplSignatures(t *testing.T) {
	glue := string(generateCounter(t).Glue)
	want := []string{
		"NewCounter(start uint64, mode Mode) Counter",
		"CounterMaxValue() uint64",
		"Merge(into Counter, from Counter) error",
		"Parse(text string, payload []byte) (Counter, error)",
		"ApplyStats(stats Stats) bool",
		"UnitSquare() Shape",
		"Authenticate(provider TokenProvider, service string) (bool, error)",
		"Increment(by uint32) (uint64, error)",
		"Label(prefix string) string",
		"GetToken(service string) (string, error)",
		"TTL() uint32",
		"Area(args []byte) ([]byte, error)",
	}
	for _, s := range want {
		assert.Contains(t, glue, s)
	}
}

func TestGenerate_CheckOrder(t *testing.T) {
	glue := generateCounter(t).Glue

	tests := []struct {
		symbol string
		order  []string
	}{
		{
			symbol: "counter_merge",
			order: []string{
				"if status == nil",
				"rt.Discard(boundary.HandleOf(from), counterTypeID)",
				`"counter_merge"`,
				"s.Owns(boundary.HandleOf(from), counterTypeID)",
				`s.CheckHandle("into"`,
				`s.CheckHandle("from"`,
				"core.Get()",
				"boundary.BorrowAs[Counter]",
				"boundary.ConsumeAs[Counter]",
				"own1.Keep()",
				"impl.Merge(arg0, arg1)",
				"writeStatus(status, st)",
			},
		},
		{
			symbol: "counter_parse",
			order: []string{
				"defer C.free(unsafe.Pointer(payload.data))",
				"if status == nil",
				`s.CheckBuffer("text"`,
				`s.CheckBuffer("payload"`,
				"core.Get()",
				`s.Text("text"`,
				"s.Bytes(",
				"impl.Parse(arg0, arg1)",
				"s.Export(counterTypeID, r)",
			},
		},
		{
			symbol: "counter_counter_increment",
			order: []string{
				"rt.InvokeFallible(\"counter_counter_increment\", counterErrorKinds",
				`s.CheckHandle("self"`,
				"boundary.BorrowAs[Counter](s, \"self\"",
				"recv.Increment(uint32(by))",
				"res = C.uint64_t(r)",
			},
		},
		{
			symbol: "counter_apply_stats",
			order: []string{
				`s.CheckPointer("stats", unsafe.Pointer(stats))`,
				`statsFromC(s, "stats", stats)`,
				"impl.ApplyStats(arg0)",
				"res = C.bool(r)",
			},
		},
		{
			symbol: "counter_counter_new",
			order: []string{
				`s.Enum("mode", "mode", int32(mode), 3)`,
				"impl.NewCounter(uint64(start), Mode(mode))",
				"boundary.PointerOf[*C.counter_counter](h)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			body := exportBody(t, glue, tt.symbol)
			last := -1
			for _, s := range tt.order {
				i := strings.Index(body, s)
				require.GreaterOrEqual(t, i, 0, "%q missing from %s", s, body)
				assert.Greater(t, i, last, "%q out of order", s)
				last = i
			}
		})
	}
}

func TestGenerate_OwnedHandlesOnNullStatus(t *testing.T) {
	out := generateCounter(t)
	glue := out.Glue

	merge := exportBody(t, glue, "counter_merge")
	early := merge[strings.Index(merge, "if status == nil"):]
	early = early[:strings.Index(early, "}")]
	assert.Contains(t, early, "rt.Discard(boundary.HandleOf(from), counterTypeID)")
	assert.NotContains(t, early, "into", "borrowed handles are left alone")

	for _, sym := range []string{"counter_counter_increment", "counter_authenticate", "counter_parse"} {
		assert.NotContains(t, exportBody(t, glue, sym), "rt.Discard", sym)
	}
	assert.Contains(t, string(out.Header), "When it is NULL the call only releases its owned arguments.")
	assert.Contains(t, string(out.Header), "from is consumed: the handle is invalid after the call, even if it fails.")
}

func TestGenerate_DescriptorErrors(t *testing.T) {
	tests := []struct {
		name string
		d    *descriptor.Descriptor
		kind errors.Kind
		n    int
	}{
		{
			name: "duplicate item",
			d: descriptor.New("dup").Add(
				&descriptor.Handle{Name: "thing"},
				&descriptor.Enum{Name: "thing", Cases: []string{"a"}},
			),
			kind: errors.KindDuplicateName,
			n:    1,
		},
		{
			name: "undeclared type",
			d: descriptor.New("undeclared").Add(
				&descriptor.Function{Name: "get", Result: descriptor.RecordOf("missing")},
			),
			kind: errors.KindUndeclaredType,
			n:    1,
		},
		{
			name: "destructor collides with free function",
			d: descriptor.New("gen").Add(
				&descriptor.Handle{Name: "counter"},
				&descriptor.Function{Name: "counter-destroy", Params: []descriptor.Param{{Name: "x", Type: descriptor.U32}}},
			),
			kind: errors.KindDuplicateName,
			n:    1,
		},
		{
			name: "constants collide after case folding",
			d: descriptor.New("gen").Add(
				&descriptor.Enum{Name: "mode", Cases: []string{"fast-path", "fast_path"}},
				&descriptor.ErrorType{Name: "failure", Kinds: []string{"internal"}},
			),
			kind: errors.KindDuplicateName,
			n:    3, // C constant, Go constant, reserved internal kind
		},
		{
			name: "go names collide",
			d: descriptor.New("gen").Add(
				&descriptor.Record{Name: "impl", Fields: []descriptor.Field{{Name: "x", Type: descriptor.U8}}},
			),
			kind: errors.KindDuplicateName,
			n:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Generate(tt.d, DefaultOptions())
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, errors.IsDescriptorError(err), "got %v", err)
			assert.Len(t, multierr.Errors(err), tt.n, "%v", err)
			for _, e := range multierr.Errors(err) {
				assert.True(t, errors.Is(e, &errors.Error{Phase: phaseOf(e), Kind: tt.kind}), "%v", e)
			}
		})
	}
}

func phaseOf(err error) errors.Phase {
	var e *errors.Error
	if errors.As(err, &e) {
		return e.Phase
	}
	return ""
}

func TestGenerate_Options(t *testing.T) {
	opts := DefaultOptions()
	opts.Prefix = "ctr"
	opts.Package = "ctrglue"
	opts.HeaderName = "ctr_api.h"

	out, err := Generate(descriptortest.Counter(), opts)
	require.NoError(t, err)

	assert.Equal(t, "ctr_api.h", out.HeaderName)
	assert.Equal(t, "ctr_glue.go", out.GlueName)
	assert.Contains(t, string(out.Header), "#ifndef CTR_API_H")
	assert.Contains(t, string(out.Header), "ctr_counter* ctr_counter_new(")
	assert.Contains(t, string(out.Glue), "package ctrglue")
	assert.Contains(t, string(out.Glue), `#include "ctr_api.h"`)
	assert.Len(t, out.Files(), 3)

	bad := DefaultOptions()
	bad.Package = "not a package"
	bad.Prefix = "9lives"
	_, err = Generate(descriptortest.Counter(), bad)
	require.Error(t, err)
	assert.True(t, errors.IsDescriptorError(err))
	assert.Len(t, multierr.Errors(err), 2)
}

func TestGenerate_NoCallbacks(t *testing.T) {
	d := descriptor.New("plain").Add(
		&descriptor.Function{Name: "answer", Result: descriptor.S32},
	)
	out, err := Generate(d, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, out.Callbacks)
	assert.Len(t, out.Files(), 2)
	assert.NotContains(t, string(out.Glue), "registry \"", "registry import only for handle fields")
	assert.NotContains(t, string(out.Glue), "TypeID", "no handle types")
}

func TestGenerate_NestedRecords(t *testing.T) {
	d := descriptor.New("geo").Add(
		&descriptor.Record{Name: "span", Fields: []descriptor.Field{
			{Name: "start", Type: descriptor.RecordOf("point")},
			{Name: "end", Type: descriptor.RecordOf("point")},
			{Name: "owner", Type: descriptor.HandleOf("map")},
			{Name: "type", Type: descriptor.U8},
		}},
		&descriptor.Record{Name: "point", Fields: []descriptor.Field{
			{Name: "x", Type: descriptor.F64},
			{Name: "y", Type: descriptor.F64},
		}},
		&descriptor.Handle{Name: "map"},
		&descriptor.Function{Name: "length", Params: []descriptor.Param{{Name: "span", Type: descriptor.RecordOf("span")}}, Result: descriptor.F64},
	)
	out, err := Generate(d, DefaultOptions())
	require.NoError(t, err)

	header := string(out.Header)
	point := strings.Index(header, "} geo_point;")
	span := strings.Index(header, "} geo_span;")
	require.Greater(t, point, 0)
	assert.Less(t, point, span, "embedded record declared first")
	assert.Contains(t, header, "geo_map* owner;")
	assert.Contains(t, header, `GEO_STATIC_ASSERT(sizeof(geo_span) == 48, "geo_span size");`)

	glue := string(out.Glue)
	assert.Contains(t, glue, `registry "github.com/wippyai/bindgen/registry"`)
	assert.Contains(t, glue, "Owner registry.Handle")
	assert.Contains(t, glue, `if out.Start, err = pointFromC(s, path+".start", &c.start); err != nil {`)
	assert.Contains(t, glue, "out.Type = uint8(c._type)", "go keyword field renamed by cgo")
	assert.Contains(t, glue, "c.owner = boundary.PointerOf[*C.geo_map](v.Owner)")
}

func TestOutput_Files(t *testing.T) {
	out := generateCounter(t)
	files := out.Files()
	assert.Equal(t, "counter.h", out.HeaderName)
	for _, name := range []string{"counter.h", "counter_glue.go", "counter_callbacks.go"} {
		assert.NotEmpty(t, files[name], name)
	}
	assert.True(t, strings.HasPrefix(string(files["counter_glue.go"]), "// Code generated by bindgen. DO NOT EDIT."))
}
