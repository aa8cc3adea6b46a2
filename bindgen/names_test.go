package bindgen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wippyai/bindgen/descriptor"
)

func TestToKebabCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"MaxValue", "max-value"},
		{"user_id", "user-id"},
		{"parseJSONBody", "parse-json-body"},
		{"already-kebab", "already-kebab"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, toKebabCase(tt.input))
		})
	}
}

func TestNameStyles(t *testing.T) {
	tests := []struct {
		input  string
		snake  string
		upper  string
		pascal string
		camel  string
	}{
		{"max-value", "max_value", "MAX_VALUE", "MaxValue", "maxValue"},
		{"TokenProvider", "token_provider", "TOKEN_PROVIDER", "TokenProvider", "tokenProvider"},
		{"not_initialized", "not_initialized", "NOT_INITIALIZED", "NotInitialized", "notInitialized"},
		{"ttl", "ttl", "TTL", "TTL", "ttl"},
		{"user-id", "user_id", "USER_ID", "UserID", "userID"},
		{"a--b", "a_b", "A_B", "AB", "aB"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.snake, snakeName(tt.input))
			assert.Equal(t, tt.upper, upperName(tt.input))
			assert.Equal(t, tt.pascal, pascalName(tt.input))
			assert.Equal(t, tt.camel, camelName(tt.input))
		})
	}
}

func TestSafeIdentifiers(t *testing.T) {
	assert.Equal(t, "type_", goSafe("type"))
	assert.Equal(t, "len_", goSafe("len"))
	assert.Equal(t, "err_", goSafe("err"))
	assert.Equal(t, "count", goSafe("count"))

	assert.Equal(t, "class_", cSafe("class"))
	assert.Equal(t, "default_", cSafe("default"))
	assert.Equal(t, "max_value", cSafe("max-value"))
	assert.Equal(t, "self", cSafe("self"))

	assert.Equal(t, "_type", cgoField("type"))
	assert.Equal(t, "_range", cgoField("range"))
	assert.Equal(t, "mode", cgoField("mode"))
}

func TestGoParam(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"user-id", "userID"},
		{"len", "len_"},
		{"arg-0", "arg0_"},
		{"own3", "own3_"},
		{"argument", "argument"},
		{"owner", "owner"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, goParam(tt.input))
		})
	}

	assert.True(t, generatedLocal("arg12"))
	assert.False(t, generatedLocal("arg"))
}

func TestImplName(t *testing.T) {
	tests := []struct {
		fn       descriptor.Function
		expected string
	}{
		{descriptor.Function{Kind: descriptor.Constructor, Receiver: "counter", Name: "new"}, "NewCounter"},
		{descriptor.Function{Kind: descriptor.Constructor, Receiver: "counter", Name: "from-text"}, "CounterFromText"},
		{descriptor.Function{Kind: descriptor.Static, Receiver: "counter", Name: "max-value"}, "CounterMaxValue"},
		{descriptor.Function{Kind: descriptor.Method, Receiver: "counter", Name: "increment"}, "Increment"},
		{descriptor.Function{Kind: descriptor.Free, Name: "unit-square"}, "UnitSquare"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, implName(&tt.fn))
		})
	}
}
