package bindgen

import (
	"fmt"
	"strings"

	"github.com/wippyai/bindgen/boundary"
	"github.com/wippyai/bindgen/descriptor"
)

// emitHeader writes the C header: shared boundary types, one declaration per
// descriptor item, then the prototypes. It contains no function bodies.
func (p *plan) emitHeader() []byte {
	w := &writer{}
	w.line("/* Code generated by bindgen. DO NOT EDIT. */")
	w.blank()
	if p.d.Docs != "" {
		w.cComment(p.d.Docs)
		w.blank()
	}

	guard := p.guard()
	w.line("#ifndef %s", guard)
	w.line("#define %s", guard)
	w.blank()
	w.line("#include <stdbool.h>")
	w.line("#include <stddef.h>")
	w.line("#include <stdint.h>")
	w.blank()
	w.line("#ifdef __cplusplus")
	w.line("#define %s(cond, msg) static_assert(cond, msg)", p.assertMacro())
	w.line("extern \"C\" {")
	w.line("#else")
	w.line("#define %s(cond, msg) _Static_assert(cond, msg)", p.assertMacro())
	w.line("#endif")
	w.blank()

	p.headerShared(w)

	for _, it := range p.d.Items {
		switch it := it.(type) {
		case *descriptor.Handle:
			w.cComment(it.Docs)
			w.line("typedef struct %[1]s %[1]s;", p.typeName(it.Name))
			w.blank()
		case *descriptor.Virtual:
			p.headerVirtual(w, it)
		case *descriptor.Callback:
			w.cComment(it.Docs)
			w.line("typedef struct %[1]s %[1]s;", p.typeName(it.Name))
			w.blank()
		case *descriptor.Enum:
			p.headerEnum(w, it)
		case *descriptor.ErrorType:
			p.headerErrors(w, it)
		}
	}
	// Records may embed records declared later.
	for _, r := range p.recordOrder() {
		p.headerRecord(w, r)
	}
	for _, cb := range p.d.Callbacks() {
		p.headerVTable(w, cb)
	}

	w.line("/* Runtime lifecycle. */")
	w.blank()
	w.line("/* Initializes the handle table. Calls made before init fail with %s. */", p.constName("status", boundary.StatusNotInitialized.String()))
	w.line("void %s(%s* status);", p.initSymbol(), p.statusType())
	w.blank()
	w.line("/* Destroys every live handle. Handles issued before shutdown are invalid afterwards. */")
	w.line("void %s(%s* status);", p.shutdownSym(), p.statusType())
	w.blank()
	w.line("/* Releases a buffer returned by this library, including status messages. */")
	w.line("void %s(%s buffer);", p.freeSymbol(), p.bufferType())
	w.blank()

	for _, it := range p.d.Items {
		switch it := it.(type) {
		case *descriptor.Handle:
			p.headerDestroy(w, it.Name)
		case *descriptor.Virtual:
			w.line("/*")
			w.line(" * Calls method (a %s_* index) of %s with an opaque argument payload.", p.macro+"_"+upperName(it.Name), it.Name)
			w.line(" * The result payload is released with %s.", p.freeSymbol())
			w.line(" */")
			w.line("%s %s(%s* self, uint32_t method, %s args, %s* status);",
				p.bufferType(), p.callSymbol(it.Name), p.typeName(it.Name), p.strType(), p.statusType())
			w.blank()
			p.headerDestroy(w, it.Name)
		case *descriptor.Callback:
			w.line("/*")
			w.line(" * Wraps a host implementation of %s. The vtable is copied; its", it.Name)
			w.line(" * context is released through the release entry once the handle is destroyed.")
			w.line(" */")
			w.line("%s* %s(%s* vtable, %s* status);",
				p.typeName(it.Name), p.newSymbol(it.Name), p.vtableType(it.Name), p.statusType())
			w.blank()
			p.headerDestroy(w, it.Name)
		case *descriptor.Function:
			p.headerFunction(w, p.fnPlan(it))
		}
	}

	w.line("#ifdef __cplusplus")
	w.line("}")
	w.line("#endif")
	w.blank()
	w.line("#endif /* %s */", guard)
	return w.bytes()
}

func (p *plan) headerShared(w *writer) {
	w.line("/* Borrowed view of UTF-8 text or bytes, valid for the duration of one call. */")
	w.line("typedef struct %s {", p.strType())
	w.indent++
	w.line("const uint8_t* data;")
	w.line("size_t len;")
	w.close("} %s;", p.strType())
	w.blank()
	w.line("/*")
	w.line(" * Memory allocated with malloc. An empty buffer may have a NULL data pointer.")
	w.line(" * Buffers returned by this library are released with %s.", p.freeSymbol())
	w.line(" */")
	w.line("typedef struct %s {", p.bufferType())
	w.indent++
	w.line("uint8_t* data;")
	w.line("size_t len;")
	w.close("} %s;", p.bufferType())
	w.blank()
	w.line("/*")
	w.line(" * Outcome of a call. Every function takes a status pointer as its last")
	w.line(" * argument. When it is NULL the call only releases its owned arguments.")
	w.line(" * On failure message holds a UTF-8 description the caller releases with")
	w.line(" * %s.", p.freeSymbol())
	w.line(" * error_kind is set when code is %s.", p.constName("status", boundary.StatusNativeError.String()))
	w.line(" */")
	w.line("typedef struct %s {", p.statusType())
	w.indent++
	w.line("int32_t code;")
	w.line("int32_t error_kind;")
	w.line("%s message;", p.bufferType())
	w.close("} %s;", p.statusType())
	w.blank()
	w.open("enum {")
	for _, c := range boundary.Codes() {
		w.line("%s = %d,", p.constName("status", c.String()), int32(c))
	}
	w.close("};")
	w.blank()
}

func (p *plan) headerEnum(w *writer, e *descriptor.Enum) {
	w.cComment(e.Docs)
	w.line("typedef int32_t %s;", p.typeName(e.Name))
	w.open("enum {")
	for i, c := range e.Cases {
		w.line("%s = %d,", p.constName(e.Name, c), i)
	}
	w.close("};")
	w.blank()
}

func (p *plan) headerErrors(w *writer, e *descriptor.ErrorType) {
	if e.Docs != "" {
		w.cComment(e.Docs)
	} else {
		w.line("/* error_kind values reported for %s. */", e.Name)
	}
	w.open("enum {")
	w.line("%s = 0,", p.constName(e.Name, "internal"))
	for i, k := range e.Kinds {
		w.line("%s = %d,", p.constName(e.Name, k), i+1)
	}
	w.close("};")
	w.blank()
}

func (p *plan) headerVirtual(w *writer, v *descriptor.Virtual) {
	w.cComment(v.Docs)
	w.line("typedef struct %[1]s %[1]s;", p.typeName(v.Name))
	w.open("enum {")
	for i, m := range v.Methods {
		w.line("%s = %d,", p.constName(v.Name, m), i)
	}
	w.line("%s = %d,", p.constName(v.Name, "method-count"), len(v.Methods))
	w.close("};")
	w.blank()
}

func (p *plan) headerRecord(w *writer, r *descriptor.Record) {
	name := p.typeName(r.Name)
	info := p.layout.Calculate(descriptor.RecordOf(r.Name))

	w.cComment(r.Docs)
	w.line("typedef struct %s {", name)
	w.indent++
	for _, f := range r.Fields {
		w.line("%s %s;", p.cType(f.Type, roleField), cSafe(f.Name))
	}
	w.close("} %s;", name)
	w.line("%s(sizeof(%s) == %d, \"%s size\");", p.assertMacro(), name, info.Size, name)
	for _, f := range r.Fields {
		field := cSafe(f.Name)
		w.line("%s(offsetof(%s, %s) == %d, \"%s.%s offset\");",
			p.assertMacro(), name, field, info.FieldOffs[f.Name], name, field)
	}
	w.blank()
}

// recordOrder returns records so that every embedded record precedes the
// record embedding it.
func (p *plan) recordOrder() []*descriptor.Record {
	var out []*descriptor.Record
	done := make(map[string]bool)
	var visit func(r *descriptor.Record)
	visit = func(r *descriptor.Record) {
		if done[r.Name] {
			return
		}
		done[r.Name] = true
		for _, f := range r.Fields {
			if f.Type.Kind != descriptor.KindRecord {
				continue
			}
			if it, ok := p.d.Lookup(f.Type.Name); ok {
				if dep, ok := it.(*descriptor.Record); ok {
					visit(dep)
				}
			}
		}
		out = append(out, r)
	}
	for _, r := range p.d.Records() {
		visit(r)
	}
	return out
}

func (p *plan) headerVTable(w *writer, cb *descriptor.Callback) {
	w.line("/*")
	w.line(" * Host implementation of %s. context is passed back to every entry.", cb.Name)
	w.line(" * Buffers returned by entries must be allocated with malloc; ownership")
	w.line(" * passes to this library. Fallible entries report failure through status.")
	w.line(" * release may be NULL.")
	w.line(" */")
	w.line("typedef struct %s {", p.vtableType(cb.Name))
	w.indent++
	w.line("void* context;")
	for _, m := range cb.Methods {
		w.line("%s (*%s)(%s);", p.cType(m.Result, roleResult), cSafe(m.Name), p.callbackParams(m, "void* context"))
	}
	w.line("void (*release)(void* context);")
	w.close("} %s;", p.vtableType(cb.Name))
	w.blank()
}

// callbackParams renders the C parameter list of a vtable entry or its
// trampoline, starting with first.
func (p *plan) callbackParams(m descriptor.CallbackMethod, first string) string {
	params := []string{first}
	for _, prm := range m.Params {
		params = append(params, p.cType(prm.Type, roleParam)+" "+cSafe(prm.Name))
	}
	if m.Fallible {
		params = append(params, p.statusType()+"* status")
	}
	return strings.Join(params, ", ")
}

func (p *plan) headerDestroy(w *writer, h string) {
	w.line("/* Destroys a %s handle. Using the handle afterwards fails with %s. */",
		h, p.constName("status", boundary.StatusInvalidHandle.String()))
	w.line("void %s(%s* self, %s* status);", p.destroySymbol(h), p.typeName(h), p.statusType())
	w.blank()
}

func (p *plan) headerFunction(w *writer, fp *fnPlan) {
	f := fp.fn
	var notes []string
	if f.Docs != "" {
		notes = append(notes, f.Docs)
	}
	for _, prm := range fp.params {
		if prm.Ownership == descriptor.Owned {
			switch {
			case prm.Type.Kind == descriptor.KindHandle:
				notes = append(notes, fmt.Sprintf("%s is consumed: the handle is invalid after the call, even if it fails.", prm.cName))
			default:
				notes = append(notes, fmt.Sprintf("%s is owned: it must be allocated with malloc and is freed by the callee.", prm.cName))
			}
		}
	}
	if f.Result.IsBuffer() {
		notes = append(notes, fmt.Sprintf("The result is released with %s.", p.freeSymbol()))
	}
	if f.Fallible() {
		notes = append(notes, fmt.Sprintf("error_kind is one of %s_*.", p.macro+"_"+upperName(f.Errors)))
	}
	if f.Blocking {
		notes = append(notes, "Blocking: may not return promptly. Do not call it from a UI thread.")
	}
	if len(notes) > 0 {
		w.cComment(strings.Join(notes, "\n"))
	}

	w.line("%s %s(%s);", p.cType(f.Result, roleResult), fp.symbol, p.cParams(fp))
	w.blank()
}

func (p *plan) cParams(fp *fnPlan) string {
	var params []string
	if fp.fn.Kind == descriptor.Method {
		params = append(params, p.typeName(fp.fn.Receiver)+"* self")
	}
	for _, prm := range fp.params {
		params = append(params, p.cType(prm.Type, paramRole(prm.Param))+" "+prm.cName)
	}
	params = append(params, p.statusType()+"* status")
	return strings.Join(params, ", ")
}

func (p *plan) fnPlan(f *descriptor.Function) *fnPlan {
	for _, fp := range p.funcs {
		if fp.fn == f {
			return fp
		}
	}
	return nil
}
