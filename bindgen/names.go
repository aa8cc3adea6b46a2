package bindgen

import (
	"go/token"
	"strings"
	"unicode"
)

// Name conversion between descriptor names (kebab-case, snake_case or
// PascalCase) and the identifiers used in the generated C and Go code.

// initialisms are spelled upper-case in Go identifiers.
var initialisms = map[string]string{
	"api":  "API",
	"id":   "ID",
	"ids":  "IDs",
	"http": "HTTP",
	"json": "JSON",
	"ttl":  "TTL",
	"url":  "URL",
	"utf8": "UTF8",
	"uuid": "UUID",
}

// toKebabCase converts PascalCase, camelCase and snake_case to kebab-case.
// Handles acronyms: GetHTTPURL -> get-http-url
func toKebabCase(s string) string {
	if len(s) == 0 {
		return ""
	}

	runes := []rune(s)
	var result strings.Builder

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case r == '_' || r == '-':
			result.WriteByte('-')
		case unicode.IsUpper(r):
			acronymEnd := i + 1
			for acronymEnd < len(runes) && unicode.IsUpper(runes[acronymEnd]) {
				acronymEnd++
			}

			if acronymEnd > i+1 {
				// Last uppercase before lowercase starts next word, not part of acronym
				if acronymEnd < len(runes) && unicode.IsLower(runes[acronymEnd]) {
					acronymEnd--
				}
			}

			if i > 0 {
				result.WriteByte('-')
			}

			for j := i; j < acronymEnd; j++ {
				result.WriteRune(unicode.ToLower(runes[j]))
			}
			i = acronymEnd - 1 // -1 because loop will increment
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}

// words splits a descriptor name into lower-case words.
func words(s string) []string {
	parts := strings.Split(toKebabCase(s), "-")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// snakeName converts a descriptor name to a C identifier: "max-value" -> "max_value".
func snakeName(s string) string {
	return strings.Join(words(s), "_")
}

// upperName converts a descriptor name to a C constant: "max-value" -> "MAX_VALUE".
func upperName(s string) string {
	return strings.ToUpper(snakeName(s))
}

// pascalName converts a descriptor name to an exported Go identifier:
// "token-provider" -> "TokenProvider", "user-id" -> "UserID".
func pascalName(s string) string {
	var b strings.Builder
	for _, w := range words(s) {
		if init, ok := initialisms[w]; ok {
			b.WriteString(init)
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(w[1:])
	}
	return b.String()
}

// camelName converts a descriptor name to an unexported Go identifier:
// "token-provider" -> "tokenProvider", "id" -> "id".
func camelName(s string) string {
	ws := words(s)
	if len(ws) == 0 {
		return ""
	}
	return ws[0] + pascalName(strings.Join(ws[1:], "-"))
}

// reservedLocals are identifiers the generated glue declares itself. Parameter
// names that collide with them get a trailing underscore.
var reservedLocals = map[string]bool{
	"C":        true,
	"boundary": true,
	"registry": true,
	"unsafe":   true,
	"s":        true,
	"st":       true,
	"err":      true,
	"res":      true,
	"recv":     true,
	"impl":     true,
	"rt":       true,
	"core":     true,
	"status":   true,
	"result":   true,
	"h":        true,
	"r":        true,
	"vt":       true,
	// package-level helpers of the glue
	"writeStatus": true,
	"bufferOf":    true,
	"hostStr":     true,
	"freeStr":     true,
	"hostError":   true,
	"hostBytes":   true,
}

// goSafe returns name, suffixed with "_" if it is a Go keyword, a predeclared
// identifier, or a local used by the glue.
func goSafe(name string) string {
	if token.IsKeyword(name) || predeclared[name] || reservedLocals[name] {
		return name + "_"
	}
	return name
}

// cgoField returns how cgo exposes a C struct field named name to Go: fields
// named like Go keywords are prefixed with an underscore.
func cgoField(name string) string {
	if token.IsKeyword(name) {
		return "_" + name
	}
	return name
}

var predeclared = map[string]bool{
	"any": true, "append": true, "bool": true, "byte": true, "cap": true,
	"clear": true, "close": true, "complex": true, "copy": true, "delete": true,
	"error": true, "false": true, "float32": true, "float64": true, "imag": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"iota": true, "len": true, "make": true, "max": true, "min": true,
	"new": true, "nil": true, "panic": true, "print": true, "println": true,
	"real": true, "recover": true, "rune": true, "string": true, "true": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"uintptr": true,
}

var cKeywords = map[string]bool{
	"auto": true, "bool": true, "break": true, "case": true, "char": true,
	"const": true, "continue": true, "default": true, "do": true, "double": true,
	"else": true, "enum": true, "extern": true, "float": true, "for": true,
	"goto": true, "if": true, "inline": true, "int": true, "long": true,
	"register": true, "restrict": true, "return": true, "short": true,
	"signed": true, "sizeof": true, "static": true, "struct": true,
	"switch": true, "typedef": true, "union": true, "unsigned": true,
	"void": true, "volatile": true, "while": true,
	// C++ and Objective-C headers include the generated header too.
	"class": true, "delete": true, "id": true, "new": true, "private": true,
	"protected": true, "public": true, "template": true, "this": true,
	"throw": true, "try": true, "catch": true, "namespace": true,
	"operator": true, "virtual": true, "friend": true,
}

// cSafe returns the snake_case C identifier for name, suffixed with "_" if it
// is a C, C++ or Objective-C keyword.
func cSafe(name string) string {
	n := snakeName(name)
	if cKeywords[n] {
		return n + "_"
	}
	return n
}
