package bindgen

import (
	"fmt"
	"strings"

	"github.com/wippyai/bindgen/descriptor"
)

// emitCallbacks writes the cgo file for host callback interfaces, or nil when
// the descriptor declares none. Go cannot call C function pointers, so the
// preamble defines one trampoline per vtable entry. It lives apart from the
// glue because a file with //export may only declare C functions.
func (p *plan) emitCallbacks() []byte {
	cbs := p.d.Callbacks()
	if len(cbs) == 0 {
		return nil
	}

	w := &writer{}
	w.line("// Code generated by bindgen. DO NOT EDIT.")
	w.blank()
	w.line("package %s", p.pkg)
	w.blank()
	w.line("/*")
	w.line("#include <stdlib.h>")
	w.line("#include %q", p.header)
	for _, cb := range cbs {
		p.trampolines(w, cb)
	}
	w.line("*/")
	w.line(`import "C"`)
	w.blank()
	w.open("import (")
	w.line(`"unsafe"`)
	w.blank()
	w.line("boundary %q", p.opts.RuntimeImport)
	w.close(")")
	w.blank()

	for _, cb := range cbs {
		p.hostWrapper(w, cb)
	}
	p.hostHelpers(w)
	return w.bytes()
}

func (p *plan) trampolines(w *writer, cb *descriptor.Callback) {
	vt := p.vtableType(cb.Name) + "* vt"
	for _, m := range cb.Methods {
		args := []string{"vt->context"}
		for _, prm := range m.Params {
			args = append(args, cSafe(prm.Name))
		}
		if m.Fallible {
			args = append(args, "status")
		}
		call := fmt.Sprintf("vt->%s(%s)", cSafe(m.Name), strings.Join(args, ", "))

		w.blank()
		w.line("static inline %s %s(%s) {", p.cType(m.Result, roleResult), p.invokeSymbol(cb.Name, m.Name), p.callbackParams(m, vt))
		if m.Result.IsVoid() {
			w.line("\t%s;", call)
		} else {
			w.line("\treturn %s;", call)
		}
		w.line("}")
	}
	w.blank()
	w.line("static inline void %s(%s) {", p.releaseInvoke(cb.Name), vt)
	w.line("\tif (vt->release != NULL) {")
	w.line("\t\tvt->release(vt->context);")
	w.line("\t}")
	w.line("}")
}

func (p *plan) hostWrapper(w *writer, cb *descriptor.Callback) {
	host := hostType(cb.Name)
	w.line("// %s adapts a host vtable to %s. It owns a malloc'd copy of the vtable.", host, pascalName(cb.Name))
	w.open("type %s struct {", host)
	w.line("vt *C.%s", p.vtableType(cb.Name))
	w.close("}")
	w.blank()

	for _, m := range cb.Methods {
		p.hostMethod(w, cb, m)
	}

	w.line("// Release hands the context back to the host and frees the vtable copy.")
	w.open("func (h *%s) Release() {", host)
	w.line("C.%s(h.vt)", p.releaseInvoke(cb.Name))
	w.line("C.free(unsafe.Pointer(h.vt))")
	w.close("}")
	w.blank()
}

func (p *plan) hostMethod(w *writer, cb *descriptor.Callback, m descriptor.CallbackMethod) {
	w.open("func (h *%s) %s%s {", hostType(cb.Name), pascalName(m.Name), p.callbackSignature(m))

	args := []string{"h.vt"}
	for i, prm := range m.Params {
		g := goParam(prm.Name)
		switch prm.Type.Kind {
		case descriptor.KindString:
			arg := fmt.Sprintf("arg%d", i)
			w.line("%s := hostStr([]byte(%s))", arg, g)
			w.line("defer freeStr(%s)", arg)
			args = append(args, arg)
		case descriptor.KindBytes:
			arg := fmt.Sprintf("arg%d", i)
			w.line("%s := hostStr(%s)", arg, g)
			w.line("defer freeStr(%s)", arg)
			args = append(args, arg)
		default:
			args = append(args, fmt.Sprintf("%s(%s)", p.cgoType(prm.Type, roleParam), g))
		}
	}
	if m.Fallible {
		w.line("var st C.%s", p.statusType())
		args = append(args, "&st")
	}
	call := fmt.Sprintf("C.%s(%s)", p.invokeSymbol(cb.Name, m.Name), strings.Join(args, ", "))
	path := cb.Name + "." + m.Name

	if m.Result.IsVoid() {
		if m.Fallible {
			w.line("%s", call)
			w.line("return hostError(%q, &st)", path)
		} else {
			w.line("%s", call)
		}
		w.close("}")
		w.blank()
		return
	}

	w.line("r := %s", call)
	zero := zeroValue(m.Result)
	if m.Fallible {
		w.open("if err := hostError(%q, &st); err != nil {", path)
		if m.Result.IsBuffer() {
			w.line("C.free(unsafe.Pointer(r.data))")
		}
		w.line("return %s, err", zero)
		w.close("}")
	}

	var value string
	switch m.Result.Kind {
	case descriptor.KindString:
		value = "string(hostBytes(r))"
	case descriptor.KindBytes:
		value = "hostBytes(r)"
	case descriptor.KindEnum:
		w.open("if err := boundary.CheckEnum(%q, %q, int32(r), %d); err != nil {", path, m.Result.Name, p.enumLen(m.Result.Name))
		if m.Fallible {
			w.line("return %s, err", zero)
		} else {
			w.line("panic(err)")
		}
		w.close("}")
		value = fmt.Sprintf("%s(r)", pascalName(m.Result.Name))
	default:
		value = fmt.Sprintf("%s(r)", goPrimitives[m.Result.Kind])
	}
	if m.Fallible {
		w.line("return %s, nil", value)
	} else {
		w.line("return %s", value)
	}
	w.close("}")
	w.blank()
}

func zeroValue(t descriptor.Type) string {
	switch t.Kind {
	case descriptor.KindBool:
		return "false"
	case descriptor.KindString:
		return `""`
	case descriptor.KindBytes:
		return "nil"
	default:
		return "0"
	}
}

func (p *plan) hostHelpers(w *writer) {
	str, buffer, status := "C."+p.strType(), "C."+p.bufferType(), "C."+p.statusType()

	w.line("// hostStr copies b into C memory for the duration of a callback.")
	w.open("func hostStr(b []byte) %s {", str)
	w.line("var out %s", str)
	w.open("if len(b) == 0 {")
	w.line("return out")
	w.close("}")
	w.line("out.data = (*C.uint8_t)(C.CBytes(b))")
	w.line("out.len = C.size_t(len(b))")
	w.line("return out")
	w.close("}")
	w.blank()
	w.open("func freeStr(s %s) {", str)
	w.line("C.free(unsafe.Pointer(s.data))")
	w.close("}")
	w.blank()
	w.line("// hostBytes copies a buffer returned by the host and frees it.")
	w.open("func hostBytes(b %s) []byte {", buffer)
	w.line("defer C.free(unsafe.Pointer(b.data))")
	w.open("if b.data == nil || b.len == 0 {")
	w.line("return []byte{}")
	w.close("}")
	w.line("return C.GoBytes(unsafe.Pointer(b.data), C.int(b.len))")
	w.close("}")
	w.blank()
	w.line("// hostError converts a status written by a host callback. It takes")
	w.line("// ownership of the message buffer.")
	w.open("func hostError(method string, st *%s) error {", status)
	w.open("if st.code == 0 {")
	w.line("C.free(unsafe.Pointer(st.message.data))")
	w.line("return nil")
	w.close("}")
	w.open("return &boundary.HostError{")
	w.line("Method:    method,")
	w.line("Code:      int32(st.code),")
	w.line("ErrorKind: int32(st.error_kind),")
	w.line("Message:   string(hostBytes(st.message)),")
	w.close("}")
	w.close("}")
	w.blank()
}
