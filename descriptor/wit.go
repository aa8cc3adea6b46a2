package descriptor

import (
	"fmt"
	"io"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/bindgen/errors"
)

// DecodeWIT reads WIT JSON (as printed by `wasm-tools component wit --json`)
// and converts the named interface into a descriptor for package pkg.
func DecodeWIT(r io.Reader, iface, pkg string) (*Descriptor, error) {
	res, err := wit.DecodeJSON(r)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseImport, errors.KindInvalidDescriptor, err, "decode WIT JSON")
	}
	return FromWIT(res, iface, pkg)
}

// FromWIT converts one interface of a resolved WIT package graph.
func FromWIT(res *wit.Resolve, iface, pkg string) (*Descriptor, error) {
	for _, i := range res.Interfaces {
		if i.Name == nil || *i.Name != iface {
			continue
		}
		var types []*wit.TypeDef
		for _, td := range i.TypeDefs.All() {
			types = append(types, td)
		}
		var funcs []*wit.Function
		for _, f := range i.Functions.All() {
			funcs = append(funcs, f)
		}
		d, err := ImportWIT(pkg, types, funcs)
		if err != nil {
			return nil, err
		}
		if i.Docs.Contents != "" {
			d.Docs = i.Docs.Contents
		}
		return d, nil
	}
	return nil, errors.New(errors.PhaseImport, errors.KindUndeclaredType).
		Detail("interface %q not found", iface).
		Build()
}

// ImportWIT converts WIT type definitions and functions into a descriptor.
//
// Records, enums and resources map to records, enums and handles. Enums used
// as the error type of a result<T, E> become error types instead of enums.
// own<T> parameters are owned, borrow<T> and everything else borrowed.
func ImportWIT(pkg string, types []*wit.TypeDef, funcs []*wit.Function) (*Descriptor, error) {
	imp := &witImporter{
		d:          New(pkg),
		errorEnums: make(map[*wit.TypeDef]bool),
	}

	for _, f := range funcs {
		if e := resultErrorEnum(f); e != nil {
			imp.errorEnums[e] = true
		}
	}

	for _, td := range types {
		imp.typeDef(td)
	}
	for _, f := range funcs {
		imp.function(f)
	}

	if err := errors.Combine(imp.errs...); err != nil {
		return nil, err
	}
	return imp.d, nil
}

type witImporter struct {
	d          *Descriptor
	errorEnums map[*wit.TypeDef]bool
	errs       []error
}

func (w *witImporter) unsupported(path []string, what string) {
	w.errs = append(w.errs, errors.New(errors.PhaseImport, errors.KindUnsupported).
		Path(path...).
		Detail("%s", what).
		Build())
}

func (w *witImporter) typeDef(td *wit.TypeDef) {
	if td.Name == nil {
		return
	}
	name := *td.Name
	docs := td.Docs.Contents

	switch kind := td.Kind.(type) {
	case *wit.Record:
		r := &Record{Name: name, Docs: docs}
		for _, f := range kind.Fields {
			t, ok := w.valueType([]string{name, f.Name}, f.Type)
			if !ok {
				continue
			}
			r.Fields = append(r.Fields, Field{Name: f.Name, Type: t})
		}
		w.d.Add(r)
	case *wit.Enum:
		cases := make([]string, len(kind.Cases))
		for i, c := range kind.Cases {
			cases[i] = c.Name
		}
		if w.errorEnums[td] {
			w.d.Add(&ErrorType{Name: name, Docs: docs, Kinds: cases})
		} else {
			w.d.Add(&Enum{Name: name, Docs: docs, Cases: cases})
		}
	case *wit.Resource:
		w.d.Add(&Handle{Name: name, Docs: docs})
	default:
		w.unsupported([]string{name}, fmt.Sprintf("unsupported WIT type definition %T", td.Kind))
	}
}

func (w *witImporter) function(f *wit.Function) {
	fn := &Function{Docs: f.Docs.Contents}

	switch kind := f.Kind.(type) {
	case *wit.Freestanding:
		fn.Kind = Free
	case *wit.Constructor:
		fn.Kind = Constructor
		fn.Receiver = typeName(kind.Type)
	case *wit.Method:
		fn.Kind = Method
		fn.Receiver = typeName(kind.Type)
	case *wit.Static:
		fn.Kind = Static
		fn.Receiver = typeName(kind.Type)
	default:
		w.unsupported([]string{f.Name}, "unknown function kind")
		return
	}
	fn.Name = baseName(f.Name)
	path := []string{fn.ItemName()}

	params := f.Params
	if fn.Kind == Method && len(params) > 0 {
		// implicit self: borrow<T>
		params = params[1:]
	}
	for _, p := range params {
		ppath := append(append([]string{}, path...), p.Name)
		t, ok := w.valueType(ppath, p.Type)
		if !ok {
			continue
		}
		fn.Params = append(fn.Params, Param{Name: p.Name, Type: t, Ownership: paramOwnership(p.Type)})
	}

	switch len(f.Results) {
	case 0:
	case 1:
		w.result(fn, path, f.Results[0].Type)
	default:
		w.unsupported(path, "multiple named results")
	}

	w.d.Add(fn)
}

func (w *witImporter) result(fn *Function, path []string, t wit.Type) {
	if td, ok := t.(*wit.TypeDef); ok {
		if r, ok := td.Kind.(*wit.Result); ok {
			if r.Err != nil {
				errTD, _ := r.Err.(*wit.TypeDef)
				if errTD == nil || errTD.Name == nil || !w.errorEnums[errTD] {
					w.unsupported(path, "result error type must be a named enum")
					return
				}
				fn.Errors = *errTD.Name
			}
			if r.OK == nil {
				return
			}
			t = r.OK
		}
	}
	rt, ok := w.valueType(append(append([]string{}, path...), "result"), t)
	if ok {
		fn.Result = rt
	}
}

func (w *witImporter) valueType(path []string, t wit.Type) (Type, bool) {
	switch t := t.(type) {
	case wit.Bool:
		return Bool, true
	case wit.S8:
		return S8, true
	case wit.U8:
		return U8, true
	case wit.S16:
		return S16, true
	case wit.U16:
		return U16, true
	case wit.S32:
		return S32, true
	case wit.U32, wit.Char:
		return U32, true
	case wit.S64:
		return S64, true
	case wit.U64:
		return U64, true
	case wit.F32:
		return F32, true
	case wit.F64:
		return F64, true
	case wit.String:
		return String, true
	case *wit.TypeDef:
		switch kind := t.Kind.(type) {
		case *wit.Own:
			return HandleOf(typeName(kind.Type)), true
		case *wit.Borrow:
			return HandleOf(typeName(kind.Type)), true
		case *wit.List:
			if _, isU8 := kind.Type.(wit.U8); isU8 {
				return Bytes, true
			}
		case *wit.Record:
			if t.Name != nil {
				return RecordOf(*t.Name), true
			}
		case *wit.Enum:
			if t.Name != nil {
				return EnumOf(*t.Name), true
			}
		case *wit.Resource:
			if t.Name != nil {
				return HandleOf(*t.Name), true
			}
		}
		w.unsupported(path, fmt.Sprintf("unsupported WIT type %T", t.Kind))
		return Type{}, false
	}
	w.unsupported(path, fmt.Sprintf("unsupported WIT type %T", t))
	return Type{}, false
}

func paramOwnership(t wit.Type) Ownership {
	if td, ok := t.(*wit.TypeDef); ok {
		if _, own := td.Kind.(*wit.Own); own {
			return Owned
		}
	}
	return Borrowed
}

func resultErrorEnum(f *wit.Function) *wit.TypeDef {
	if len(f.Results) != 1 {
		return nil
	}
	td, ok := f.Results[0].Type.(*wit.TypeDef)
	if !ok {
		return nil
	}
	r, ok := td.Kind.(*wit.Result)
	if !ok || r.Err == nil {
		return nil
	}
	errTD, ok := r.Err.(*wit.TypeDef)
	if !ok {
		return nil
	}
	if _, isEnum := errTD.Kind.(*wit.Enum); !isEnum {
		return nil
	}
	return errTD
}

func typeName(t wit.Type) string {
	if td, ok := t.(*wit.TypeDef); ok && td.Name != nil {
		return *td.Name
	}
	return ""
}

// baseName strips the WIT function prefixes:
//   - "[constructor]counter" -> "new"
//   - "[method]counter.increment" -> "increment"
//   - "[static]counter.zero" -> "zero"
func baseName(name string) string {
	if strings.HasPrefix(name, "[constructor]") {
		return "new"
	}
	if strings.HasPrefix(name, "[") {
		if end := strings.IndexByte(name, ']'); end >= 0 {
			name = name[end+1:]
		}
		if dot := strings.IndexByte(name, '.'); dot >= 0 {
			name = name[dot+1:]
		}
	}
	return name
}
