package bindgen

import (
	"fmt"
	"strings"

	"github.com/wippyai/bindgen/descriptor"
)

// emitGlue writes the cgo file holding the Go mirror types, the Impl
// interface and one //export function per header prototype. The preamble
// only includes the header: files with exports may not define C functions.
func (p *plan) emitGlue() []byte {
	w := &writer{}
	w.line("// Code generated by bindgen. DO NOT EDIT.")
	w.blank()
	w.line("package %s", p.pkg)
	w.blank()
	w.line("/*")
	w.line("#include <stdlib.h>")
	w.line("#include %q", p.header)
	w.line("*/")
	w.line(`import "C"`)
	w.blank()
	w.open("import (")
	w.line(`"unsafe"`)
	w.blank()
	w.line("boundary %q", p.opts.RuntimeImport)
	if p.usesRegistry() {
		w.line("registry %q", p.opts.RegistryImport)
	}
	w.close(")")
	w.blank()

	w.open("var (")
	w.line("rt   = boundary.New(%q, nil)", p.prefix)
	w.line("core = boundary.NewBinding[Impl](%q)", p.prefix)
	w.close(")")
	w.blank()
	w.line("// Register installs the native implementation. It must be called before")
	w.line("// the host calls %s.", p.initSymbol())
	w.line("func Register(impl Impl) { core.Set(impl) }")
	w.blank()
	w.line("// Runtime returns the boundary runtime behind the exported functions.")
	w.line("func Runtime() *boundary.Runtime { return rt }")
	w.blank()

	if handles := p.d.HandleTypes(); len(handles) > 0 {
		w.line("// Registry type ids.")
		w.open("const (")
		for _, h := range handles {
			w.line("%s uint32 = %d", typeIDName(h), p.d.TypeID(h))
		}
		w.close(")")
		w.blank()
	}

	for _, it := range p.d.Items {
		switch it := it.(type) {
		case *descriptor.Enum:
			p.glueEnum(w, it)
		case *descriptor.ErrorType:
			p.glueErrors(w, it)
		case *descriptor.Record:
			p.glueRecord(w, it)
		case *descriptor.Handle:
			p.glueHandle(w, it)
		case *descriptor.Virtual:
			p.glueVirtual(w, it)
		case *descriptor.Callback:
			p.glueCallback(w, it)
		}
	}
	p.glueImpl(w)
	p.glueHelpers(w)

	p.glueLifecycle(w)
	for _, it := range p.d.Items {
		switch it := it.(type) {
		case *descriptor.Handle:
			p.glueDestroy(w, it.Name)
		case *descriptor.Virtual:
			p.glueCall(w, it)
			p.glueDestroy(w, it.Name)
		case *descriptor.Callback:
			p.glueNewCallback(w, it)
			p.glueDestroy(w, it.Name)
		case *descriptor.Function:
			p.glueFunction(w, p.fnPlan(it))
		}
	}
	return w.bytes()
}

func (p *plan) glueEnum(w *writer, e *descriptor.Enum) {
	name := pascalName(e.Name)
	if e.Docs != "" {
		w.comment("//", e.Docs)
	}
	w.line("type %s int32", name)
	w.blank()
	w.open("const (")
	for i, c := range e.Cases {
		w.line("%s %s = %d", caseConst(e.Name, c), name, i)
	}
	w.close(")")
	w.blank()
	w.open("func (v %s) String() string {", name)
	w.line("switch v {")
	for _, c := range e.Cases {
		w.line("case %s:", caseConst(e.Name, c))
		w.indent++
		w.line("return %q", c)
		w.indent--
	}
	w.line("default:")
	w.indent++
	w.line(`return "?"`)
	w.indent--
	w.line("}")
	w.close("}")
	w.blank()
}

func (p *plan) glueErrors(w *writer, e *descriptor.ErrorType) {
	w.line("// Error kinds of %s. Native errors report them through boundary.Kinded.", e.Name)
	w.open("const (")
	for _, k := range e.Kinds {
		w.line("%s = %q", caseConst(e.Name, k), k)
	}
	w.close(")")
	w.blank()
	args := []string{fmt.Sprintf("%q", e.Name)}
	for _, k := range e.Kinds {
		args = append(args, caseConst(e.Name, k))
	}
	w.line("var %s = boundary.NewErrorKinds(%s)", kindsVar(e.Name), strings.Join(args, ", "))
	w.blank()
}

func (p *plan) glueRecord(w *writer, r *descriptor.Record) {
	name := pascalName(r.Name)
	ctype := "C." + p.typeName(r.Name)
	info := p.layout.Calculate(descriptor.RecordOf(r.Name))

	if r.Docs != "" {
		w.comment("//", r.Docs)
	}
	w.open("type %s struct {", name)
	for _, f := range r.Fields {
		w.line("%s %s", pascalName(f.Name), fieldGoType(f.Type))
	}
	w.close("}")
	w.blank()
	w.line("var _ = [1]struct{}{}[unsafe.Sizeof(%s{})-%d]", ctype, info.Size)
	w.blank()

	nested := false
	for _, f := range r.Fields {
		if f.Type.Kind == descriptor.KindRecord {
			nested = true
		}
	}
	w.open("func %s(s *boundary.Scope, path string, c *%s) (%s, error) {", fromCFunc(r.Name), ctype, name)
	w.line("var out %s", name)
	if nested {
		w.line("var err error")
	}
	for _, f := range r.Fields {
		field := pascalName(f.Name)
		cf := "c." + cgoField(cSafe(f.Name))
		switch f.Type.Kind {
		case descriptor.KindEnum:
			w.open("if err := s.Enum(path+%q, %q, int32(%s), %d); err != nil {", "."+f.Name, f.Type.Name, cf, p.enumLen(f.Type.Name))
			w.line("return out, err")
			w.close("}")
			w.line("out.%s = %s(%s)", field, pascalName(f.Type.Name), cf)
		case descriptor.KindRecord:
			w.open("if out.%s, err = %s(s, path+%q, &%s); err != nil {", field, fromCFunc(f.Type.Name), "."+f.Name, cf)
			w.line("return out, err")
			w.close("}")
		case descriptor.KindHandle:
			w.line("out.%s = boundary.HandleOf(%s)", field, cf)
		default:
			w.line("out.%s = %s(%s)", field, goPrimitives[f.Type.Kind], cf)
		}
	}
	w.line("return out, nil")
	w.close("}")
	w.blank()

	w.open("func %s(v %s) %s {", toCFunc(r.Name), name, ctype)
	w.line("var c %s", ctype)
	for _, f := range r.Fields {
		field := "v." + pascalName(f.Name)
		cf := "c." + cgoField(cSafe(f.Name))
		switch f.Type.Kind {
		case descriptor.KindRecord:
			w.line("%s = %s(%s)", cf, toCFunc(f.Type.Name), field)
		case descriptor.KindHandle:
			w.line("%s = boundary.PointerOf[%s](%s)", cf, p.cgoType(f.Type, roleField), field)
		default:
			w.line("%s = %s(%s)", cf, p.cgoType(f.Type, roleField), field)
		}
	}
	w.line("return c")
	w.close("}")
	w.blank()
}

func (p *plan) glueHandle(w *writer, h *descriptor.Handle) {
	if h.Docs != "" {
		w.comment("//", h.Docs)
		w.line("//")
	}
	w.line("// Values implementing Release() are released once their handle is destroyed.")
	w.open("type %s interface {", pascalName(h.Name))
	for _, f := range p.d.Methods(h.Name) {
		if f.Kind != descriptor.Method {
			continue
		}
		p.glueMethodDocs(w, f)
		w.line("%s%s", implName(f), p.goSignature(p.fnPlan(f)))
	}
	w.close("}")
	w.blank()
}

func (p *plan) glueVirtual(w *writer, v *descriptor.Virtual) {
	name := pascalName(v.Name)
	if v.Docs != "" {
		w.comment("//", v.Docs)
	}
	w.open("type %s interface {", name)
	for _, m := range v.Methods {
		w.line("%s(args []byte) ([]byte, error)", pascalName(m))
	}
	w.close("}")
	w.blank()
	w.open("var %s = boundary.NewVTable(%q,", vtableVar(v.Name), v.Name)
	for _, m := range v.Methods {
		w.line("boundary.Method[%s]{Name: %q, Call: %s.%s},", name, m, name, pascalName(m))
	}
	w.close(")")
	w.blank()
}

func (p *plan) glueCallback(w *writer, cb *descriptor.Callback) {
	if cb.Docs != "" {
		w.comment("//", cb.Docs)
		w.line("//")
	}
	w.line("// The host supplies implementations through %s.", p.newSymbol(cb.Name))
	w.open("type %s interface {", pascalName(cb.Name))
	for _, m := range cb.Methods {
		w.line("%s%s", pascalName(m.Name), p.callbackSignature(m))
	}
	w.close("}")
	w.blank()
}

func (p *plan) glueImpl(w *writer) {
	w.line("// Impl is the native implementation behind the exported free functions,")
	w.line("// constructors and static functions.")
	w.open("type Impl interface {")
	for _, fp := range p.funcs {
		if fp.fn.Kind == descriptor.Method {
			continue
		}
		p.glueMethodDocs(w, fp.fn)
		w.line("%s%s", fp.goName, p.goSignature(fp))
	}
	w.close("}")
	w.blank()
}

func (p *plan) glueMethodDocs(w *writer, f *descriptor.Function) {
	if f.Docs != "" {
		w.comment("//", f.Docs)
	}
	if f.Blocking {
		w.line("// Blocking.")
	}
}

// goSignature renders the Go parameter and result list of a native function.
func (p *plan) goSignature(fp *fnPlan) string {
	params := make([]string, 0, len(fp.params))
	for _, prm := range fp.params {
		params = append(params, prm.goName+" "+goType(prm.Type))
	}
	return "(" + strings.Join(params, ", ") + ")" + results(goType(fp.fn.Result), fp.fn.Fallible())
}

func (p *plan) callbackSignature(m descriptor.CallbackMethod) string {
	params := make([]string, 0, len(m.Params))
	for _, prm := range m.Params {
		params = append(params, goParam(prm.Name)+" "+goType(prm.Type))
	}
	return "(" + strings.Join(params, ", ") + ")" + results(goType(m.Result), m.Fallible)
}

func results(result string, fallible bool) string {
	switch {
	case result == "" && fallible:
		return " error"
	case result == "":
		return ""
	case fallible:
		return " (" + result + ", error)"
	default:
		return " " + result
	}
}

func (p *plan) glueHelpers(w *writer) {
	status, buffer := "C."+p.statusType(), "C."+p.bufferType()
	w.open("func writeStatus(out *%s, st boundary.Status) {", status)
	w.line("out.code = C.int32_t(st.Code)")
	w.line("out.error_kind = C.int32_t(st.ErrorKind)")
	w.line("out.message = %s{}", buffer)
	w.open("if !st.OK() {")
	w.line("out.message = bufferOf([]byte(st.Message))")
	w.close("}")
	w.close("}")
	w.blank()
	w.line("// bufferOf copies b into C memory owned by the caller.")
	w.open("func bufferOf(b []byte) %s {", buffer)
	w.line("var out %s", buffer)
	w.open("if len(b) == 0 {")
	w.line("return out")
	w.close("}")
	w.line("out.data = (*C.uint8_t)(C.CBytes(b))")
	w.line("out.len = C.size_t(len(b))")
	w.line("return out")
	w.close("}")
	w.blank()
}

func (p *plan) glueLifecycle(w *writer) {
	status := "*C." + p.statusType()

	w.line("//export %s", p.initSymbol())
	w.open("func %s(status %s) {", p.initSymbol(), status)
	w.open("if status == nil {")
	w.line("return")
	w.close("}")
	w.line("_, err := core.Get()")
	w.open("if err == nil {")
	w.line("err = rt.Init()")
	w.close("}")
	w.line("writeStatus(status, boundary.StatusOf(err, nil))")
	w.close("}")
	w.blank()

	w.line("//export %s", p.shutdownSym())
	w.open("func %s(status %s) {", p.shutdownSym(), status)
	w.open("if status == nil {")
	w.line("return")
	w.close("}")
	w.line("writeStatus(status, boundary.StatusOf(rt.Shutdown(), nil))")
	w.close("}")
	w.blank()

	w.line("//export %s", p.freeSymbol())
	w.open("func %s(buffer C.%s) {", p.freeSymbol(), p.bufferType())
	w.line("C.free(unsafe.Pointer(buffer.data))")
	w.close("}")
	w.blank()
}

// invoke opens the guarded closure of an export. The caller writes the body
// and then calls endInvoke. discard lists statements run when status is
// NULL, before the early return.
func (p *plan) invoke(w *writer, symbol, kinds string, discard ...string) {
	w.open("if status == nil {")
	for _, d := range discard {
		w.line("%s", d)
	}
	w.line("return")
	w.close("}")
	if kinds != "" {
		w.open("st := rt.InvokeFallible(%q, %s, func(s *boundary.Scope) error {", symbol, kinds)
	} else {
		w.open("st := rt.Invoke(%q, func(s *boundary.Scope) error {", symbol)
	}
}

func (p *plan) endInvoke(w *writer, hasResult bool) {
	w.close("})")
	w.line("writeStatus(status, st)")
	if hasResult {
		w.line("return")
	}
	w.close("}")
	w.blank()
}

func returnOnErr(w *writer) {
	w.open("if err != nil {")
	w.line("return err")
	w.close("}")
}

func (p *plan) glueDestroy(w *writer, h string) {
	sym := p.destroySymbol(h)
	w.line("//export %s", sym)
	w.open("func %s(self *C.%s, status *C.%s) {", sym, p.typeName(h), p.statusType())
	p.invoke(w, sym, "")
	w.line("h := boundary.HandleOf(self)")
	w.open(`if err := s.CheckHandle("self", h); err != nil {`)
	w.line("return err")
	w.close("}")
	w.line("return s.Registry().Destroy(h, %s)", typeIDName(h))
	p.endInvoke(w, false)
}

func (p *plan) glueCall(w *writer, v *descriptor.Virtual) {
	sym := p.callSymbol(v.Name)
	w.line("//export %s", sym)
	w.open("func %s(self *C.%s, method C.uint32_t, args C.%s, status *C.%s) (res C.%s) {",
		sym, p.typeName(v.Name), p.strType(), p.statusType(), p.bufferType())
	p.invoke(w, sym, "")
	w.open(`if err := s.CheckHandle("self", boundary.HandleOf(self)); err != nil {`)
	w.line("return err")
	w.close("}")
	w.open(`if err := s.CheckBuffer("args", unsafe.Pointer(args.data), int(args.len)); err != nil {`)
	w.line("return err")
	w.close("}")
	w.line(`recv, err := boundary.BorrowAs[%s](s, "self", boundary.HandleOf(self), %s)`, pascalName(v.Name), typeIDName(v.Name))
	returnOnErr(w)
	w.line("r, err := %s.Call(recv, uint32(method), s.Bytes(boundary.View(unsafe.Pointer(args.data), int(args.len))))", vtableVar(v.Name))
	returnOnErr(w)
	w.line("res = bufferOf(r)")
	w.line("return nil")
	p.endInvoke(w, true)
}

func (p *plan) glueNewCallback(w *writer, cb *descriptor.Callback) {
	sym := p.newSymbol(cb.Name)
	vt := "C." + p.vtableType(cb.Name)
	w.line("//export %s", sym)
	w.open("func %s(vtable *%s, status *C.%s) (res *C.%s) {", sym, vt, p.statusType(), p.typeName(cb.Name))
	p.invoke(w, sym, "")
	w.open(`if err := s.CheckPointer("vtable", unsafe.Pointer(vtable)); err != nil {`)
	w.line("return err")
	w.close("}")
	for _, m := range cb.Methods {
		field := cgoField(cSafe(m.Name))
		w.open("if err := s.CheckPointer(%q, unsafe.Pointer(vtable.%s)); err != nil {", "vtable."+cSafe(m.Name), field)
		w.line("return err")
		w.close("}")
	}
	w.line("vt := (*%s)(C.malloc(C.sizeof_%s))", vt, p.vtableType(cb.Name))
	w.line("*vt = *vtable")
	w.line("h, err := s.Export(%s, &%s{vt: vt})", typeIDName(cb.Name), hostType(cb.Name))
	returnOnErr(w)
	w.line("res = boundary.PointerOf[*C.%s](h)", p.typeName(cb.Name))
	w.line("return nil")
	p.endInvoke(w, true)
}

// glueFunction emits the export for a descriptor function. Inside the guarded
// closure the order is fixed: null checks, implementation lookup, argument
// decoding, handle borrows, then the native call and result encoding.
func (p *plan) glueFunction(w *writer, fp *fnPlan) {
	f := fp.fn
	result := p.cgoType(f.Result, roleResult)

	params := make([]string, 0, len(fp.params)+2)
	if f.Kind == descriptor.Method {
		params = append(params, "self *C."+p.typeName(f.Receiver))
	}
	for _, prm := range fp.params {
		params = append(params, prm.goName+" "+p.cgoType(prm.Type, paramRole(prm.Param)))
	}
	params = append(params, "status *C."+p.statusType())

	w.line("//export %s", fp.symbol)
	if result == "" {
		w.open("func %s(%s) {", fp.symbol, strings.Join(params, ", "))
	} else {
		w.open("func %s(%s) (res %s) {", fp.symbol, strings.Join(params, ", "), result)
	}

	// Owned C memory is freed on every exit, including a NULL status.
	for _, prm := range fp.params {
		if prm.Ownership != descriptor.Owned {
			continue
		}
		switch {
		case prm.Type.IsBuffer():
			w.line("defer C.free(unsafe.Pointer(%s.data))", prm.goName)
		case prm.Type.Kind == descriptor.KindRecord:
			w.line("defer C.free(unsafe.Pointer(%s))", prm.goName)
		}
	}

	// Owned handles are consumed even when the call never runs.
	var discard []string
	for _, prm := range fp.params {
		if prm.Ownership == descriptor.Owned && prm.Type.Kind == descriptor.KindHandle {
			discard = append(discard, fmt.Sprintf("rt.Discard(boundary.HandleOf(%s), %s)", prm.goName, typeIDName(prm.Type.Name)))
		}
	}

	kinds := ""
	if f.Fallible() {
		kinds = kindsVar(f.Errors)
	}
	p.invoke(w, fp.symbol, kinds, discard...)
	for _, prm := range fp.params {
		if prm.Ownership == descriptor.Owned && prm.Type.Kind == descriptor.KindHandle {
			w.line("s.Owns(boundary.HandleOf(%s), %s)", prm.goName, typeIDName(prm.Type.Name))
		}
	}

	if f.Kind == descriptor.Method {
		w.open(`if err := s.CheckHandle("self", boundary.HandleOf(self)); err != nil {`)
		w.line("return err")
		w.close("}")
	}
	for _, prm := range fp.params {
		g := prm.goName
		switch {
		case prm.Type.IsBuffer():
			w.open("if err := s.CheckBuffer(%q, unsafe.Pointer(%s.data), int(%s.len)); err != nil {", prm.Name, g, g)
		case prm.Type.Kind == descriptor.KindRecord:
			w.open("if err := s.CheckPointer(%q, unsafe.Pointer(%s)); err != nil {", prm.Name, g)
		case prm.Type.Kind == descriptor.KindHandle:
			w.open("if err := s.CheckHandle(%q, boundary.HandleOf(%s)); err != nil {", prm.Name, g)
		default:
			continue
		}
		w.line("return err")
		w.close("}")
	}

	if f.Kind != descriptor.Method {
		w.line("impl, err := core.Get()")
		returnOnErr(w)
	}

	args := make([]string, len(fp.params))
	var keeps []string
	var handles []int
	for i, prm := range fp.params {
		g := prm.goName
		arg := fmt.Sprintf("arg%d", i)
		switch prm.Type.Kind {
		case descriptor.KindEnum:
			w.open("if err := s.Enum(%q, %q, int32(%s), %d); err != nil {", prm.Name, prm.Type.Name, g, p.enumLen(prm.Type.Name))
			w.line("return err")
			w.close("}")
			args[i] = fmt.Sprintf("%s(%s)", pascalName(prm.Type.Name), g)
		case descriptor.KindString:
			w.line("%s, err := s.Text(%q, boundary.View(unsafe.Pointer(%s.data), int(%s.len)))", arg, prm.Name, g, g)
			returnOnErr(w)
			args[i] = arg
		case descriptor.KindBytes:
			w.line("%s := s.Bytes(boundary.View(unsafe.Pointer(%s.data), int(%s.len)))", arg, g, g)
			args[i] = arg
		case descriptor.KindRecord:
			w.line("%s, err := %s(s, %q, %s)", arg, fromCFunc(prm.Type.Name), prm.Name, g)
			returnOnErr(w)
			args[i] = arg
		case descriptor.KindHandle:
			handles = append(handles, i)
			args[i] = arg
		default:
			args[i] = fmt.Sprintf("%s(%s)", goPrimitives[prm.Type.Kind], g)
		}
	}

	if f.Kind == descriptor.Method {
		w.line(`recv, err := boundary.BorrowAs[%s](s, "self", boundary.HandleOf(self), %s)`, pascalName(f.Receiver), typeIDName(f.Receiver))
		returnOnErr(w)
	}
	for _, i := range handles {
		prm := fp.params[i]
		iface, id := pascalName(prm.Type.Name), typeIDName(prm.Type.Name)
		if prm.Ownership == descriptor.Owned {
			own := fmt.Sprintf("own%d", i)
			w.line("%s, %s, err := boundary.ConsumeAs[%s](s, %q, boundary.HandleOf(%s), %s)", args[i], own, iface, prm.Name, prm.goName, id)
			keeps = append(keeps, own)
		} else {
			w.line("%s, err := boundary.BorrowAs[%s](s, %q, boundary.HandleOf(%s), %s)", args[i], iface, prm.Name, prm.goName, id)
		}
		returnOnErr(w)
	}

	for _, own := range keeps {
		w.line("%s.Keep()", own)
	}

	target := "impl"
	if f.Kind == descriptor.Method {
		target = "recv"
	}
	call := fmt.Sprintf("%s.%s(%s)", target, fp.goName, strings.Join(args, ", "))

	switch {
	case f.Result.IsVoid() && f.Fallible():
		w.line("return %s", call)
		p.endInvoke(w, false)
		return
	case f.Result.IsVoid():
		w.line("%s", call)
		w.line("return nil")
		p.endInvoke(w, false)
		return
	case f.Fallible():
		w.line("r, err := %s", call)
		returnOnErr(w)
	default:
		w.line("r := %s", call)
	}

	switch f.Result.Kind {
	case descriptor.KindEnum:
		w.open(`if err := s.Enum("result", %q, int32(r), %d); err != nil {`, f.Result.Name, p.enumLen(f.Result.Name))
		w.line("return err")
		w.close("}")
		w.line("res = %s(r)", result)
	case descriptor.KindString:
		w.line("res = bufferOf([]byte(r))")
	case descriptor.KindBytes:
		w.line("res = bufferOf(r)")
	case descriptor.KindRecord:
		w.line("res = %s(r)", toCFunc(f.Result.Name))
	case descriptor.KindHandle:
		w.line("h, err := s.Export(%s, r)", typeIDName(f.Result.Name))
		returnOnErr(w)
		w.line("res = boundary.PointerOf[%s](h)", result)
	default:
		w.line("res = %s(r)", result)
	}
	w.line("return nil")
	p.endInvoke(w, true)
}
