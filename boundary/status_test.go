package boundary

import (
	"fmt"
	"testing"

	"github.com/wippyai/bindgen/errors"
)

func TestStatusOf(t *testing.T) {
	kinds := NewErrorKinds("counter-error", "overflow", "not-found")

	tests := []struct {
		name    string
		err     error
		code    Code
		kind    int32
		message string
	}{
		{"nil", nil, StatusOK, 0, ""},
		{"null argument", errors.NullArgument("f", "p"), StatusNullArgument, 0, ""},
		{"invalid handle", errors.InvalidHandle(42, "destroyed"), StatusInvalidHandle, 0, ""},
		{"type mismatch", errors.HandleTypeMismatch(42, 1, 2), StatusInvalidHandle, 0, ""},
		{"utf8", errors.InvalidUTF8([]string{"f", "p"}, []byte{0xff}), StatusEncodingFailure, 0, ""},
		{"enum", errors.InvalidEnum([]string{"f", "p"}, 9, "mode"), StatusEncodingFailure, 0, ""},
		{"panic", errors.Panic("f", "boom"), StatusPanic, 0, ""},
		{"unknown method", errors.UnknownMethod("shape", 9, 2), StatusUnknownMethod, 0, ""},
		{"not initialized", errors.NotInitialized("counter"), StatusNotInitialized, 0, ""},
		{"closed registry", errors.Closed("registry"), StatusNotInitialized, 0, ""},
		{"structured native", errors.Native("not-found", "no such counter"), StatusNativeError, 2, "no such counter"},
		{"native error", Errorf("overflow", "too big"), StatusNativeError, 1, "too big"},
		{"wrapped native error", fmt.Errorf("wrap: %w", Errorf("not-found", "gone")), StatusNativeError, 2, "gone"},
		{"undeclared kind", Errorf("melted", "hot"), StatusNativeError, 0, "hot"},
		{"plain error", fmt.Errorf("disk on fire"), StatusNativeError, 0, "disk on fire"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := StatusOf(tt.err, kinds)
			if st.Code != tt.code {
				t.Fatalf("code = %s, want %s", st.Code, tt.code)
			}
			if st.ErrorKind != tt.kind {
				t.Errorf("kind = %d, want %d", st.ErrorKind, tt.kind)
			}
			if tt.message != "" && st.Message != tt.message {
				t.Errorf("message = %q, want %q", st.Message, tt.message)
			}
			if tt.err != nil && st.Message == "" {
				t.Error("failed status must carry a message")
			}
		})
	}
}

func TestStatusOf_NilKinds(t *testing.T) {
	st := StatusOf(Errorf("overflow", "x"), nil)
	if st.Code != StatusNativeError || st.ErrorKind != 0 {
		t.Fatalf("got %+v", st)
	}
}

func TestCode_String(t *testing.T) {
	want := []string{"ok", "native_error", "null_argument", "invalid_handle",
		"encoding_failure", "panic", "unknown_method", "not_initialized"}
	codes := Codes()
	if len(codes) != len(want) {
		t.Fatalf("got %d codes, want %d", len(codes), len(want))
	}
	for i, c := range codes {
		if int(c) != i || c.String() != want[i] {
			t.Errorf("code %d = %d %q, want %q", i, c, c.String(), want[i])
		}
	}
	if Code(99).String() != "unknown" {
		t.Error("out of range code")
	}
}

func TestErrorKinds(t *testing.T) {
	k := NewErrorKinds("counter-error", "overflow", "not-found")
	if k.Name() != "counter-error" || k.Len() != 2 {
		t.Fatalf("got %q/%d", k.Name(), k.Len())
	}
	for code, name := range map[int32]string{0: "", 1: "overflow", 2: "not-found", 3: ""} {
		if got := k.Kind(code); got != name {
			t.Errorf("Kind(%d) = %q, want %q", code, got, name)
		}
		if name != "" && k.Code(name) != code {
			t.Errorf("Code(%q) = %d, want %d", name, k.Code(name), code)
		}
	}

	var none *ErrorKinds
	if none.Code("overflow") != 0 || none.Kind(1) != "" || none.Len() != 0 || none.Name() != "" {
		t.Error("nil ErrorKinds must be empty")
	}
}

func TestNativeError(t *testing.T) {
	e := Errorf("overflow", "at %d", 5)
	if e.Error() != "overflow: at 5" {
		t.Errorf("Error() = %q", e.Error())
	}
	if (&NativeError{Message: "plain"}).Error() != "plain" {
		t.Error("kindless error should print only the message")
	}
}
