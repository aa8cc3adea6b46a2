package descriptor_test

import (
	"strings"
	"testing"

	"go.uber.org/multierr"

	"github.com/wippyai/bindgen/descriptor"
	"github.com/wippyai/bindgen/descriptor/descriptortest"
	"github.com/wippyai/bindgen/errors"
)

func TestValidate_Counter(t *testing.T) {
	if err := descriptortest.Counter().Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidate_DuplicateName(t *testing.T) {
	tests := []struct {
		name  string
		items []descriptor.Item
	}{
		{
			name: "two functions",
			items: []descriptor.Item{
				&descriptor.Function{Name: "open"},
				&descriptor.Function{Name: "open", Result: descriptor.U32},
			},
		},
		{
			name: "function and record",
			items: []descriptor.Item{
				&descriptor.Record{Name: "point", Fields: []descriptor.Field{{Name: "x", Type: descriptor.S32}}},
				&descriptor.Function{Name: "point"},
			},
		},
		{
			name: "two methods on one handle",
			items: []descriptor.Item{
				&descriptor.Handle{Name: "file"},
				&descriptor.Function{Name: "read", Kind: descriptor.Method, Receiver: "file"},
				&descriptor.Function{Name: "read", Kind: descriptor.Method, Receiver: "file"},
			},
		},
		{
			name: "handle and enum",
			items: []descriptor.Item{
				&descriptor.Handle{Name: "file"},
				&descriptor.Enum{Name: "file", Cases: []string{"a"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := descriptor.New("p").Add(tt.items...).Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsDescriptorError(err) {
				t.Fatalf("expected descriptor error, got %v", err)
			}
			if !errors.Is(err, &errors.Error{Phase: errors.PhaseValidate, Kind: errors.KindDuplicateName}) {
				t.Fatalf("expected duplicate_name, got %v", err)
			}
		})
	}
}

func TestValidate_SameMethodNameOnDifferentHandles(t *testing.T) {
	d := descriptor.New("p").Add(
		&descriptor.Handle{Name: "file"},
		&descriptor.Handle{Name: "socket"},
		&descriptor.Function{Name: "close", Kind: descriptor.Method, Receiver: "file"},
		&descriptor.Function{Name: "close", Kind: descriptor.Method, Receiver: "socket"},
	)
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidate_UndeclaredType(t *testing.T) {
	tests := []struct {
		name string
		item descriptor.Item
	}{
		{"param", &descriptor.Function{Name: "f", Params: []descriptor.Param{{Name: "x", Type: descriptor.RecordOf("missing")}}}},
		{"result", &descriptor.Function{Name: "f", Result: descriptor.HandleOf("missing")}},
		{"field", &descriptor.Record{Name: "r", Fields: []descriptor.Field{{Name: "x", Type: descriptor.EnumOf("missing")}}}},
		{"receiver", &descriptor.Function{Name: "f", Kind: descriptor.Method, Receiver: "missing"}},
		{"errors", &descriptor.Function{Name: "f", Errors: "missing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := descriptor.New("p").Add(tt.item).Validate()
			if !errors.Is(err, &errors.Error{Phase: errors.PhaseValidate, Kind: errors.KindUndeclaredType}) {
				t.Fatalf("expected undeclared_type, got %v", err)
			}
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	d := descriptor.New("p").Add(
		&descriptor.Function{Name: "f", Result: descriptor.HandleOf("a")},
		&descriptor.Function{Name: "g", Result: descriptor.HandleOf("b")},
		&descriptor.Function{Name: "g"},
	)
	err := d.Validate()
	if got := len(multierr.Errors(err)); got != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", got, err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		d      *descriptor.Descriptor
		detail string
	}{
		{
			name:   "bad package",
			d:      descriptor.New("9lives"),
			detail: "package",
		},
		{
			name: "string field",
			d: descriptor.New("p").Add(&descriptor.Record{
				Name:   "r",
				Fields: []descriptor.Field{{Name: "s", Type: descriptor.String}},
			}),
			detail: "fixed-size",
		},
		{
			name: "returned param",
			d: descriptor.New("p").Add(&descriptor.Function{
				Name:   "f",
				Params: []descriptor.Param{{Name: "s", Type: descriptor.String, Ownership: descriptor.Returned}},
			}),
			detail: "only valid on results",
		},
		{
			name: "owned primitive",
			d: descriptor.New("p").Add(&descriptor.Function{
				Name:   "f",
				Params: []descriptor.Param{{Name: "n", Type: descriptor.U32, Ownership: descriptor.Owned}},
			}),
			detail: "no meaning",
		},
		{
			name: "constructor result",
			d: descriptor.New("p").Add(
				&descriptor.Handle{Name: "h"},
				&descriptor.Function{Name: "new", Kind: descriptor.Constructor, Receiver: "h", Result: descriptor.U32},
			),
			detail: "constructor must return",
		},
		{
			name: "kind mismatch",
			d: descriptor.New("p").Add(
				&descriptor.Handle{Name: "h"},
				&descriptor.Function{Name: "f", Result: descriptor.RecordOf("h")},
			),
			detail: "not a record",
		},
		{
			name: "method on record",
			d: descriptor.New("p").Add(
				&descriptor.Record{Name: "r", Fields: []descriptor.Field{{Name: "x", Type: descriptor.U8}}},
				&descriptor.Function{Name: "f", Kind: descriptor.Method, Receiver: "r"},
			),
			detail: "not a handle",
		},
		{
			name: "self-containing record",
			d: descriptor.New("p").Add(
				&descriptor.Record{Name: "a", Fields: []descriptor.Field{{Name: "b", Type: descriptor.RecordOf("b")}}},
				&descriptor.Record{Name: "b", Fields: []descriptor.Field{{Name: "a", Type: descriptor.RecordOf("a")}}},
			),
			detail: "contains itself",
		},
		{
			name:   "empty enum",
			d:      descriptor.New("p").Add(&descriptor.Enum{Name: "e"}),
			detail: "at least one case",
		},
		{
			name: "callback with handle param",
			d: descriptor.New("p").Add(
				&descriptor.Handle{Name: "h"},
				&descriptor.Callback{Name: "cb", Methods: []descriptor.CallbackMethod{
					{Name: "m", Params: []descriptor.Param{{Name: "x", Type: descriptor.HandleOf("h")}}},
				}},
			),
			detail: "callback parameters",
		},
		{
			name: "duplicate self",
			d: descriptor.New("p").Add(
				&descriptor.Handle{Name: "h"},
				&descriptor.Function{Name: "m", Kind: descriptor.Method, Receiver: "h",
					Params: []descriptor.Param{{Name: "self", Type: descriptor.U8}}},
			),
			detail: "another parameter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsDescriptorError(err) {
				t.Fatalf("expected descriptor error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.detail) {
				t.Fatalf("error %q does not mention %q", err, tt.detail)
			}
		})
	}
}

func TestDescriptor_TypeID(t *testing.T) {
	d := descriptortest.Counter()

	names := d.HandleTypes()
	want := []string{"counter", "shape", "token-provider"}
	if len(names) != len(want) {
		t.Fatalf("HandleTypes = %v, want %v", names, want)
	}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("HandleTypes[%d] = %q, want %q", i, names[i], n)
		}
		if id := d.TypeID(n); id != uint32(i+1) {
			t.Errorf("TypeID(%q) = %d, want %d", n, id, i+1)
		}
	}
	if d.TypeID("stats") != 0 {
		t.Error("records have no type id")
	}
}

func TestDescriptor_Methods(t *testing.T) {
	d := descriptortest.Counter()
	methods := d.Methods("counter")
	if len(methods) != 5 {
		t.Fatalf("expected 5 counter functions, got %d", len(methods))
	}
	if methods[0].ItemName() != "counter.new" {
		t.Errorf("first = %q, want counter.new", methods[0].ItemName())
	}
}

func TestOwnership_String(t *testing.T) {
	for o, want := range map[descriptor.Ownership]string{
		descriptor.Borrowed: "borrowed",
		descriptor.Owned:    "owned",
		descriptor.Returned: "returned",
		descriptor.Ownership(9): "?",
	} {
		if got := o.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", o, got, want)
		}
	}
}
