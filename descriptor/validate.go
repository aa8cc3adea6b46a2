package descriptor

import (
	"fmt"

	"github.com/wippyai/bindgen/errors"
)

// Validate checks every invariant of the descriptor and reports all
// problems at once. A nil result means the descriptor can be generated.
func (d *Descriptor) Validate() error {
	v := &validator{d: d, seen: make(map[string]Item)}
	v.run()
	return errors.Combine(v.errs...)
}

type validator struct {
	d    *Descriptor
	seen map[string]Item
	errs []error
}

func (v *validator) fail(err error) {
	v.errs = append(v.errs, err)
}

func (v *validator) run() {
	if !isIdent(v.d.Package, false) {
		v.fail(errors.InvalidDescriptor([]string{"package"}, "package %q is not a valid Go identifier", v.d.Package))
	}
	if v.d.Prefix != "" && !isIdent(v.d.Prefix, false) {
		v.fail(errors.InvalidDescriptor([]string{"prefix"}, "prefix %q is not a valid C identifier", v.d.Prefix))
	}

	// Names first so type checks below can rely on the lookup table.
	for _, it := range v.d.Items {
		if it == nil {
			v.fail(errors.InvalidDescriptor(nil, "nil item"))
			continue
		}
		name := it.ItemName()
		if f, ok := it.(*Function); ok {
			if !isIdent(f.Name, true) {
				v.fail(errors.InvalidDescriptor([]string{name}, "invalid function name %q", f.Name))
			}
		} else if !isIdent(name, true) {
			v.fail(errors.InvalidDescriptor([]string{name}, "invalid %s name %q", it.ItemKind(), name))
		}
		if prev, dup := v.seen[name]; dup {
			v.fail(errors.DuplicateName([]string{name}, name, describe(prev)))
			continue
		}
		v.seen[name] = it
	}

	for _, it := range v.d.Items {
		switch it := it.(type) {
		case *Function:
			v.function(it)
		case *Record:
			v.record(it)
		case *Enum:
			v.cases(it.Name, "case", it.Cases)
		case *ErrorType:
			v.cases(it.Name, "error kind", it.Kinds)
		case *Virtual:
			v.cases(it.Name, "method", it.Methods)
		case *Callback:
			v.callback(it)
		}
	}

	v.recordCycles()
}

func (v *validator) function(f *Function) {
	path := []string{f.ItemName()}

	switch f.Kind {
	case Free:
		if f.Receiver != "" {
			v.fail(errors.InvalidDescriptor(path, "free function cannot have a receiver"))
		}
	case Constructor, Method, Static:
		if f.Receiver == "" {
			v.fail(errors.InvalidDescriptor(path, "%s requires a receiver handle", f.Kind))
			break
		}
		it, ok := v.seen[f.Receiver]
		if !ok {
			v.fail(errors.UndeclaredType(path, f.Receiver))
			break
		}
		if _, isHandle := it.(*Handle); !isHandle {
			v.fail(errors.InvalidDescriptor(path, "receiver %q is a %s, not a handle", f.Receiver, it.ItemKind()))
		}
		if f.Kind == Constructor && f.Result != HandleOf(f.Receiver) {
			v.fail(errors.InvalidDescriptor(path, "constructor must return %s, not %s", f.Receiver, f.Result))
		}
	default:
		v.fail(errors.InvalidDescriptor(path, "unknown function kind %d", f.Kind))
	}

	names := make(map[string]bool, len(f.Params))
	if f.Kind == Method {
		names["self"] = true
	}
	for _, p := range f.Params {
		ppath := append(append([]string{}, path...), p.Name)
		if !isIdent(p.Name, true) {
			v.fail(errors.InvalidDescriptor(ppath, "invalid parameter name %q", p.Name))
		}
		if names[p.Name] {
			v.fail(errors.DuplicateName(ppath, p.Name, "another parameter"))
		}
		names[p.Name] = true
		v.param(ppath, p)
	}

	if !f.Result.IsVoid() {
		v.typeRef(append(append([]string{}, path...), "result"), f.Result)
	}

	if f.Errors != "" {
		it, ok := v.seen[f.Errors]
		if !ok {
			v.fail(errors.UndeclaredType(path, f.Errors))
		} else if _, isErr := it.(*ErrorType); !isErr {
			v.fail(errors.InvalidDescriptor(path, "errors %q is a %s, not an error type", f.Errors, it.ItemKind()))
		}
	}
}

func (v *validator) param(path []string, p Param) {
	if p.Type.IsVoid() {
		v.fail(errors.InvalidDescriptor(path, "parameter cannot be void"))
		return
	}
	v.typeRef(path, p.Type)

	switch p.Ownership {
	case Borrowed:
	case Owned:
		if p.Type.IsPrimitive() || p.Type.Kind == KindEnum {
			v.fail(errors.InvalidDescriptor(path, "owned has no meaning for value type %s", p.Type))
		}
	case Returned:
		v.fail(errors.InvalidDescriptor(path, "returned ownership is only valid on results"))
	default:
		v.fail(errors.InvalidDescriptor(path, "unknown ownership %d", p.Ownership))
	}
}

func (v *validator) typeRef(path []string, t Type) {
	if !t.IsNamed() {
		if t.Name != "" {
			v.fail(errors.InvalidDescriptor(path, "%s type cannot carry a name", t.Kind))
		}
		if t.Kind > KindHandle {
			v.fail(errors.InvalidDescriptor(path, "unknown type kind %d", t.Kind))
		}
		return
	}

	it, ok := v.seen[t.Name]
	if !ok {
		v.fail(errors.UndeclaredType(path, t.Name))
		return
	}

	var match bool
	switch t.Kind {
	case KindRecord:
		_, match = it.(*Record)
	case KindEnum:
		_, match = it.(*Enum)
	case KindHandle:
		switch it.(type) {
		case *Handle, *Virtual, *Callback:
			match = true
		}
	}
	if !match {
		v.fail(errors.InvalidDescriptor(path, "%q is a %s, not a %s", t.Name, it.ItemKind(), t.Kind))
	}
}

func (v *validator) record(r *Record) {
	path := []string{r.Name}
	if len(r.Fields) == 0 {
		v.fail(errors.InvalidDescriptor(path, "record has no fields"))
	}
	names := make(map[string]bool, len(r.Fields))
	for _, f := range r.Fields {
		fpath := []string{r.Name, f.Name}
		if !isIdent(f.Name, true) {
			v.fail(errors.InvalidDescriptor(fpath, "invalid field name %q", f.Name))
		}
		if names[f.Name] {
			v.fail(errors.DuplicateName(fpath, f.Name, "another field"))
		}
		names[f.Name] = true
		if !f.Type.IsFixedSize() {
			v.fail(errors.InvalidDescriptor(fpath, "record fields must be fixed-size, got %s", f.Type))
			continue
		}
		v.typeRef(fpath, f.Type)
	}
}

func (v *validator) cases(owner, what string, cases []string) {
	if len(cases) == 0 {
		v.fail(errors.InvalidDescriptor([]string{owner}, "at least one %s is required", what))
	}
	names := make(map[string]bool, len(cases))
	for _, c := range cases {
		path := []string{owner, c}
		if !isIdent(c, true) {
			v.fail(errors.InvalidDescriptor(path, "invalid %s name %q", what, c))
		}
		if names[c] {
			v.fail(errors.DuplicateName(path, c, "another "+what))
		}
		names[c] = true
	}
}

func (v *validator) callback(c *Callback) {
	if len(c.Methods) == 0 {
		v.fail(errors.InvalidDescriptor([]string{c.Name}, "callback interface has no methods"))
	}
	names := make(map[string]bool, len(c.Methods))
	for _, m := range c.Methods {
		path := []string{c.Name, m.Name}
		if !isIdent(m.Name, true) {
			v.fail(errors.InvalidDescriptor(path, "invalid method name %q", m.Name))
		}
		if names[m.Name] {
			v.fail(errors.DuplicateName(path, m.Name, "another method"))
		}
		names[m.Name] = true

		for _, p := range m.Params {
			ppath := []string{c.Name, m.Name, p.Name}
			if !callbackType(p.Type) {
				v.fail(errors.InvalidDescriptor(ppath, "callback parameters must be primitives, enums, string or bytes, got %s", p.Type))
				continue
			}
			if p.Ownership != Borrowed {
				v.fail(errors.InvalidDescriptor(ppath, "callback parameters are always borrowed"))
			}
			v.typeRef(ppath, p.Type)
		}
		if !m.Result.IsVoid() {
			if !callbackType(m.Result) {
				v.fail(errors.InvalidDescriptor(path, "callback results must be primitives, enums, string or bytes, got %s", m.Result))
			} else {
				v.typeRef(path, m.Result)
			}
		}
	}
}

func callbackType(t Type) bool {
	return t.IsPrimitive() || t.IsBuffer() || t.Kind == KindEnum
}

// recordCycles rejects records that contain themselves by value.
func (v *validator) recordCycles() {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)

	var visit func(r *Record) bool
	visit = func(r *Record) bool {
		switch state[r.Name] {
		case visiting:
			return false
		case done:
			return true
		}
		state[r.Name] = visiting
		for _, f := range r.Fields {
			if f.Type.Kind != KindRecord {
				continue
			}
			next, ok := v.seen[f.Type.Name].(*Record)
			if ok && !visit(next) {
				return false
			}
		}
		state[r.Name] = done
		return true
	}

	for _, r := range v.d.Records() {
		if state[r.Name] == unvisited && !visit(r) {
			v.fail(errors.InvalidDescriptor([]string{r.Name}, "record contains itself"))
		}
	}
}

func describe(it Item) string {
	return fmt.Sprintf("%s %s", it.ItemKind(), it.ItemName())
}

// isIdent accepts ASCII identifiers starting with a letter. Kebab names as
// used by WIT are allowed when dashes is set.
func isIdent(s string, dashes bool) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9', c == '_':
			if i == 0 {
				return false
			}
		case c == '-' && dashes:
			if i == 0 || i == len(s)-1 || s[i-1] == '-' {
				return false
			}
		default:
			return false
		}
	}
	return true
}
