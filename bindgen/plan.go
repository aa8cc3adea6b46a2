package bindgen

import (
	"fmt"
	"go/token"
	"strings"

	"github.com/wippyai/bindgen/boundary"
	"github.com/wippyai/bindgen/descriptor"
	"github.com/wippyai/bindgen/errors"
	"github.com/wippyai/bindgen/layout"
)

// plan holds every name and type derived from a descriptor. The header and
// glue emitters read from the same plan so the two artifacts agree.
type plan struct {
	d      *descriptor.Descriptor
	layout *layout.Calculator
	opts   Options
	pkg    string
	prefix string
	macro  string
	header string
	funcs  []*fnPlan
	errs   []error
}

type fnPlan struct {
	fn     *descriptor.Function
	symbol string
	goName string
	params []paramPlan
}

type paramPlan struct {
	descriptor.Param
	cName  string
	goName string
}

func newPlan(d *descriptor.Descriptor, opts Options) *plan {
	p := &plan{d: d, opts: opts, layout: layout.NewCalculator(d)}

	p.pkg = opts.Package
	if p.pkg == "" {
		p.pkg = d.Package
	}
	switch {
	case opts.Prefix != "":
		p.prefix = opts.Prefix
	case d.Prefix != "":
		p.prefix = d.Prefix
	default:
		p.prefix = p.pkg
	}
	p.macro = strings.ToUpper(p.prefix)
	p.header = opts.HeaderName
	if p.header == "" {
		p.header = p.prefix + ".h"
	}

	for _, f := range d.Functions() {
		fp := &fnPlan{fn: f, symbol: p.symbol(f), goName: implName(f)}
		for _, prm := range f.Params {
			fp.params = append(fp.params, paramPlan{
				Param:  prm,
				cName:  cParam(prm.Name),
				goName: goParam(prm.Name),
			})
		}
		p.funcs = append(p.funcs, fp)
	}
	return p
}

// C names

func (p *plan) typeName(item string) string { return p.prefix + "_" + snakeName(item) }

func (p *plan) constName(parts ...string) string {
	out := p.macro
	for _, part := range parts {
		out += "_" + upperName(part)
	}
	return out
}

func (p *plan) strType() string     { return p.prefix + "_str" }
func (p *plan) bufferType() string  { return p.prefix + "_buffer" }
func (p *plan) statusType() string  { return p.prefix + "_status" }
func (p *plan) initSymbol() string  { return p.prefix + "_init" }
func (p *plan) shutdownSym() string { return p.prefix + "_shutdown" }
func (p *plan) freeSymbol() string  { return p.prefix + "_buffer_free" }
func (p *plan) assertMacro() string { return p.macro + "_STATIC_ASSERT" }

func (p *plan) destroySymbol(h string) string { return p.typeName(h) + "_destroy" }
func (p *plan) callSymbol(v string) string    { return p.typeName(v) + "_call" }
func (p *plan) newSymbol(cb string) string    { return p.typeName(cb) + "_new" }
func (p *plan) vtableType(cb string) string   { return p.typeName(cb) + "_vtable" }

func (p *plan) invokeSymbol(cb, method string) string {
	return p.typeName(cb) + "_" + snakeName(method) + "_invoke"
}

func (p *plan) releaseInvoke(cb string) string { return p.typeName(cb) + "_release_invoke" }

func (p *plan) guard() string {
	var b strings.Builder
	for _, r := range strings.ToUpper(p.header) {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func (p *plan) symbol(f *descriptor.Function) string {
	if f.Kind != descriptor.Free {
		return p.typeName(f.Receiver) + "_" + snakeName(f.Name)
	}
	return p.typeName(f.Name)
}

// cParam renames parameters that would shadow the trailing status parameter.
func cParam(name string) string {
	n := cSafe(name)
	if n == "status" {
		return n + "_"
	}
	return n
}

// Go names

func typeIDName(h string) string   { return camelName(h) + "TypeID" }
func kindsVar(e string) string     { return camelName(e) + "Kinds" }
func hostType(cb string) string    { return camelName(cb) + "Host" }
func vtableVar(v string) string    { return camelName(v) + "VTable" }
func fromCFunc(rec string) string  { return camelName(rec) + "FromC" }
func toCFunc(rec string) string    { return camelName(rec) + "ToC" }
func caseConst(e, c string) string { return pascalName(e) + pascalName(c) }

// implName is the Go method implementing f, on Impl or on the receiver
// interface for methods.
func implName(f *descriptor.Function) string {
	switch f.Kind {
	case descriptor.Constructor:
		if f.Name == "new" {
			return "New" + pascalName(f.Receiver)
		}
		return pascalName(f.Receiver) + pascalName(f.Name)
	case descriptor.Static:
		return pascalName(f.Receiver) + pascalName(f.Name)
	default:
		return pascalName(f.Name)
	}
}

func goParam(name string) string {
	n := camelName(name)
	if generatedLocal(n) {
		return n + "_"
	}
	return goSafe(n)
}

// generatedLocal reports whether n has the form of the numbered locals the
// glue declares (arg0, own1).
func generatedLocal(n string) bool {
	for _, pre := range []string{"arg", "own"} {
		rest, ok := strings.CutPrefix(n, pre)
		if !ok || rest == "" {
			continue
		}
		if strings.Trim(rest, "0123456789") == "" {
			return true
		}
	}
	return false
}

// C types

type role uint8

const (
	roleParam role = iota
	roleOwned
	roleResult
	roleField
)

func paramRole(prm descriptor.Param) role {
	if prm.Ownership == descriptor.Owned {
		return roleOwned
	}
	return roleParam
}

var cPrimitives = map[descriptor.TypeKind]string{
	descriptor.KindBool: "bool",
	descriptor.KindS8:   "int8_t",
	descriptor.KindU8:   "uint8_t",
	descriptor.KindS16:  "int16_t",
	descriptor.KindU16:  "uint16_t",
	descriptor.KindS32:  "int32_t",
	descriptor.KindU32:  "uint32_t",
	descriptor.KindS64:  "int64_t",
	descriptor.KindU64:  "uint64_t",
	descriptor.KindF32:  "float",
	descriptor.KindF64:  "double",
}

var goPrimitives = map[descriptor.TypeKind]string{
	descriptor.KindBool: "bool",
	descriptor.KindS8:   "int8",
	descriptor.KindU8:   "uint8",
	descriptor.KindS16:  "int16",
	descriptor.KindU16:  "uint16",
	descriptor.KindS32:  "int32",
	descriptor.KindU32:  "uint32",
	descriptor.KindS64:  "int64",
	descriptor.KindU64:  "uint64",
	descriptor.KindF32:  "float32",
	descriptor.KindF64:  "float64",
}

// cType returns the C spelling of t in the given position.
// Borrowed strings and bytes are views; owned ones and results are malloc'd
// buffers. Records are passed by pointer and returned by value.
func (p *plan) cType(t descriptor.Type, r role) string {
	switch {
	case t.IsVoid():
		return "void"
	case t.IsPrimitive():
		return cPrimitives[t.Kind]
	case t.Kind == descriptor.KindEnum:
		return p.typeName(t.Name)
	case t.Kind == descriptor.KindHandle:
		return p.typeName(t.Name) + "*"
	case t.IsBuffer():
		if r == roleParam {
			return p.strType()
		}
		return p.bufferType()
	case t.Kind == descriptor.KindRecord:
		if r == roleParam || r == roleOwned {
			return p.typeName(t.Name) + "*"
		}
		return p.typeName(t.Name)
	}
	return "void"
}

// cgoType returns how Go code refers to the C type of t.
func (p *plan) cgoType(t descriptor.Type, r role) string {
	return cgoSpelling(p.cType(t, r))
}

func cgoSpelling(c string) string {
	if c == "void" {
		return ""
	}
	if base, ok := strings.CutSuffix(c, "*"); ok {
		return "*C." + base
	}
	return "C." + c
}

// goType returns the Go type native code sees for t.
func goType(t descriptor.Type) string {
	switch {
	case t.IsPrimitive():
		return goPrimitives[t.Kind]
	case t.Kind == descriptor.KindString:
		return "string"
	case t.Kind == descriptor.KindBytes:
		return "[]byte"
	case t.IsNamed():
		return pascalName(t.Name)
	}
	return ""
}

// fieldGoType is goType for record fields, where handles stay raw.
func fieldGoType(t descriptor.Type) string {
	if t.Kind == descriptor.KindHandle {
		return "registry.Handle"
	}
	return goType(t)
}

func (p *plan) enumLen(name string) int {
	if it, ok := p.d.Lookup(name); ok {
		if e, ok := it.(*descriptor.Enum); ok {
			return len(e.Cases)
		}
	}
	return 0
}

func (p *plan) usesRegistry() bool {
	for _, r := range p.d.Records() {
		for _, f := range r.Fields {
			if f.Type.Kind == descriptor.KindHandle {
				return true
			}
		}
	}
	return false
}

// Collision checks

// namespace maps generated identifiers to the item that claimed them.
type namespace map[string]string

func (p *plan) claim(ns namespace, name, owner string, path ...string) {
	if first, dup := ns[name]; dup {
		p.errs = append(p.errs, errors.New(errors.PhaseGenerate, errors.KindDuplicateName).
			Path(path...).
			Value(name).
			Detail("generated name %q for %s collides with %s", name, owner, first).
			Build())
		return
	}
	ns[name] = owner
}

func (p *plan) invalid(path []string, detail string, args ...any) {
	p.errs = append(p.errs, errors.New(errors.PhaseGenerate, errors.KindInvalidDescriptor).
		Path(path...).
		Detail(detail, args...).
		Build())
}

// check reports every generated C or Go identifier that would be declared
// twice, plus invalid option values.
func (p *plan) check() error {
	if !token.IsIdentifier(p.pkg) {
		p.invalid([]string{"package"}, "package %q is not a valid Go identifier", p.pkg)
	}
	if !cIdent(p.prefix) {
		p.invalid([]string{"prefix"}, "prefix %q is not a valid C identifier", p.prefix)
	}
	if p.header == "" || strings.ContainsAny(p.header, "\"<>\n\\") {
		p.invalid([]string{"header"}, "header name %q cannot be included", p.header)
	}
	p.checkC()
	p.checkGo()
	return errors.Combine(p.errs...)
}

func cIdent(s string) bool {
	if s == "" || s[0] >= '0' && s[0] <= '9' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			return false
		}
	}
	return !cKeywords[s]
}

func (p *plan) checkC() {
	ns := namespace{}
	const shared = "boundary support"
	for _, n := range []string{
		p.strType(), p.bufferType(), p.statusType(),
		p.initSymbol(), p.shutdownSym(), p.freeSymbol(),
		p.assertMacro(), p.guard(),
	} {
		p.claim(ns, n, shared)
	}
	for _, c := range boundary.Codes() {
		p.claim(ns, p.constName("status", c.String()), shared)
	}

	for _, it := range p.d.Items {
		owner := describe(it)
		name := it.ItemName()
		switch it := it.(type) {
		case *descriptor.Enum:
			p.claim(ns, p.typeName(it.Name), owner, name)
			for _, c := range it.Cases {
				p.claim(ns, p.constName(it.Name, c), owner, name, c)
			}
		case *descriptor.Record:
			p.claim(ns, p.typeName(it.Name), owner, name)
			fields := namespace{}
			for _, f := range it.Fields {
				p.claim(fields, cSafe(f.Name), "field "+f.Name, name, f.Name)
			}
		case *descriptor.Handle:
			p.claim(ns, p.typeName(it.Name), owner, name)
			p.claim(ns, p.destroySymbol(it.Name), owner+" destructor", name)
		case *descriptor.ErrorType:
			p.claim(ns, p.constName(it.Name, "internal"), owner, name)
			for _, k := range it.Kinds {
				p.claim(ns, p.constName(it.Name, k), owner, name, k)
			}
		case *descriptor.Virtual:
			p.claim(ns, p.typeName(it.Name), owner, name)
			p.claim(ns, p.callSymbol(it.Name), owner+" dispatch", name)
			p.claim(ns, p.destroySymbol(it.Name), owner+" destructor", name)
			p.claim(ns, p.constName(it.Name, "method-count"), owner, name)
			for _, m := range it.Methods {
				p.claim(ns, p.constName(it.Name, m), owner, name, m)
			}
		case *descriptor.Callback:
			p.claim(ns, p.typeName(it.Name), owner, name)
			p.claim(ns, p.vtableType(it.Name), owner+" vtable", name)
			p.claim(ns, p.newSymbol(it.Name), owner+" constructor", name)
			p.claim(ns, p.destroySymbol(it.Name), owner+" destructor", name)
			p.claim(ns, p.releaseInvoke(it.Name), owner+" release", name)
			fields := namespace{"context": "vtable context", "release": "vtable release"}
			for _, m := range it.Methods {
				p.claim(ns, p.invokeSymbol(it.Name, m.Name), owner, name, m.Name)
				p.claim(fields, cSafe(m.Name), "method "+m.Name, name, m.Name)
				params := namespace{"context": "vtable context", "status": "status", "vt": "vtable"}
				for _, prm := range m.Params {
					p.claim(params, cSafe(prm.Name), "parameter "+prm.Name, name, m.Name, prm.Name)
				}
			}
		}
	}

	for _, fp := range p.funcs {
		path := fp.fn.ItemName()
		p.claim(ns, fp.symbol, describe(fp.fn), path)
		params := namespace{"status": "status"}
		if fp.fn.Kind == descriptor.Method {
			params["self"] = "receiver"
		}
		for _, prm := range fp.params {
			p.claim(params, prm.cName, "parameter "+prm.Name, path, prm.Name)
		}
	}
}

func (p *plan) checkGo() {
	const fixed = "glue support"
	ns := namespace{}
	for _, n := range []string{
		"rt", "core", "Impl", "Register", "Runtime",
		"writeStatus", "bufferOf", "hostStr", "freeStr", "hostError", "hostBytes",
	} {
		p.claim(ns, n, fixed)
	}
	impl := namespace{}

	for _, it := range p.d.Items {
		owner := describe(it)
		name := it.ItemName()
		switch it := it.(type) {
		case *descriptor.Enum:
			p.claim(ns, pascalName(it.Name), owner, name)
			for _, c := range it.Cases {
				p.claim(ns, caseConst(it.Name, c), owner, name, c)
			}
		case *descriptor.Record:
			p.claim(ns, pascalName(it.Name), owner, name)
			p.claim(ns, fromCFunc(it.Name), owner, name)
			p.claim(ns, toCFunc(it.Name), owner, name)
			fields := namespace{}
			for _, f := range it.Fields {
				p.claim(fields, pascalName(f.Name), "field "+f.Name, name, f.Name)
			}
		case *descriptor.Handle:
			p.claim(ns, pascalName(it.Name), owner, name)
			p.claim(ns, typeIDName(it.Name), owner, name)
			methods := namespace{}
			for _, f := range p.d.Methods(it.Name) {
				if f.Kind == descriptor.Method {
					p.claim(methods, implName(f), describe(f), f.ItemName())
				}
			}
		case *descriptor.ErrorType:
			p.claim(ns, kindsVar(it.Name), owner, name)
			for _, k := range it.Kinds {
				p.claim(ns, caseConst(it.Name, k), owner, name, k)
			}
		case *descriptor.Virtual:
			p.claim(ns, pascalName(it.Name), owner, name)
			p.claim(ns, typeIDName(it.Name), owner, name)
			p.claim(ns, vtableVar(it.Name), owner, name)
			methods := namespace{}
			for _, m := range it.Methods {
				p.claim(methods, pascalName(m), "method "+m, name, m)
			}
		case *descriptor.Callback:
			p.claim(ns, pascalName(it.Name), owner, name)
			p.claim(ns, typeIDName(it.Name), owner, name)
			p.claim(ns, hostType(it.Name), owner, name)
			methods := namespace{"Release": "host release"}
			for _, m := range it.Methods {
				p.claim(methods, pascalName(m.Name), "method "+m.Name, name, m.Name)
				params := namespace{}
				for _, prm := range m.Params {
					p.claim(params, goParam(prm.Name), "parameter "+prm.Name, name, m.Name, prm.Name)
				}
			}
		}
	}

	for _, fp := range p.funcs {
		path := fp.fn.ItemName()
		p.claim(ns, fp.symbol, describe(fp.fn), path)
		if fp.fn.Kind != descriptor.Method {
			p.claim(impl, fp.goName, describe(fp.fn), path)
		}
		params := namespace{"status": "status"}
		if fp.fn.Kind == descriptor.Method {
			params["self"] = "receiver"
		}
		for _, prm := range fp.params {
			p.claim(params, prm.goName, "parameter "+prm.Name, path, prm.Name)
		}
	}
}

func describe(it descriptor.Item) string {
	return fmt.Sprintf("%s %s", it.ItemKind(), it.ItemName())
}
