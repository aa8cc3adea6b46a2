package descriptor

// Descriptor is the ordered set of items exported across the boundary.
type Descriptor struct {
	Package string // Go package name of the generated glue
	Prefix  string // C symbol prefix; defaults to Package
	Docs    string
	Items   []Item
}

// New creates an empty descriptor for the given package.
func New(pkg string) *Descriptor {
	return &Descriptor{Package: pkg}
}

// Add appends items and returns d for chaining.
func (d *Descriptor) Add(items ...Item) *Descriptor {
	d.Items = append(d.Items, items...)
	return d
}

// SymbolPrefix returns the C prefix used for every generated symbol.
func (d *Descriptor) SymbolPrefix() string {
	if d.Prefix != "" {
		return d.Prefix
	}
	return d.Package
}

// Lookup finds an item by its exported name.
func (d *Descriptor) Lookup(name string) (Item, bool) {
	for _, it := range d.Items {
		if it.ItemName() == name {
			return it, true
		}
	}
	return nil, false
}

// Functions returns every function in declaration order.
func (d *Descriptor) Functions() []*Function {
	var out []*Function
	for _, it := range d.Items {
		if f, ok := it.(*Function); ok {
			out = append(out, f)
		}
	}
	return out
}

// Records returns every record in declaration order.
func (d *Descriptor) Records() []*Record {
	var out []*Record
	for _, it := range d.Items {
		if r, ok := it.(*Record); ok {
			out = append(out, r)
		}
	}
	return out
}

// Enums returns every enum in declaration order.
func (d *Descriptor) Enums() []*Enum {
	var out []*Enum
	for _, it := range d.Items {
		if e, ok := it.(*Enum); ok {
			out = append(out, e)
		}
	}
	return out
}

// ErrorTypes returns every error type in declaration order.
func (d *Descriptor) ErrorTypes() []*ErrorType {
	var out []*ErrorType
	for _, it := range d.Items {
		if e, ok := it.(*ErrorType); ok {
			out = append(out, e)
		}
	}
	return out
}

// Virtuals returns every virtual interface in declaration order.
func (d *Descriptor) Virtuals() []*Virtual {
	var out []*Virtual
	for _, it := range d.Items {
		if v, ok := it.(*Virtual); ok {
			out = append(out, v)
		}
	}
	return out
}

// Callbacks returns every callback interface in declaration order.
func (d *Descriptor) Callbacks() []*Callback {
	var out []*Callback
	for _, it := range d.Items {
		if c, ok := it.(*Callback); ok {
			out = append(out, c)
		}
	}
	return out
}

// HandleTypes returns the names of every item that crosses the boundary as
// an opaque handle (handles, virtual and callback interfaces), in
// declaration order.
func (d *Descriptor) HandleTypes() []string {
	var out []string
	for _, it := range d.Items {
		switch it.(type) {
		case *Handle, *Virtual, *Callback:
			out = append(out, it.ItemName())
		}
	}
	return out
}

// TypeID returns the registry type id of a handle type. Ids start at 1 and
// follow declaration order; 0 means name is not a handle type.
func (d *Descriptor) TypeID(name string) uint32 {
	for i, n := range d.HandleTypes() {
		if n == name {
			return uint32(i + 1)
		}
	}
	return 0
}

// Methods returns the functions bound to the named handle.
func (d *Descriptor) Methods(handle string) []*Function {
	var out []*Function
	for _, f := range d.Functions() {
		if f.Kind != Free && f.Receiver == handle {
			out = append(out, f)
		}
	}
	return out
}
